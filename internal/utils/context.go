// Package utils provides shared utility functions and constants
package utils

// ContextKeyUserID is the key used to store the authenticated user id in the echo context
const ContextKeyUserID = "user_id"

// DefaultCookieName is the authentication cookie read when none is configured
const DefaultCookieName = "IronDrive"
