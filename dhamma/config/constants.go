package config

import "time"

// Application-wide constants organized by domain

// Gameplay Constants
const (
	// Serial numbers printed on card instances
	SerialMin = 100000
	SerialMax = 999999

	// Market feed size
	MarketFeedLimit = 100
)

// Database and Performance Constants
const (
	DefaultQueryTimeout = 30 * time.Second
	SearchTimeout       = 10 * time.Second
	MarketQueryTimeout  = 30 * time.Second
	NetworkDialTimeout  = 5 * time.Second
	NetworkKeepAlive    = 30 * time.Second

	// Cache settings
	CacheExpiration = 5 * time.Minute
	CacheSize       = 10000

	MaxRetries = 3
)

// API and Rate Limiting Constants
const (
	GlobalRateLimit = 50
	UserRateLimit   = 10
	RateLimitWindow = 1 * time.Minute

	MaxRequestSize        = 10 * 1024 * 1024 // slips are photos
	RequestTimeout        = 30 * time.Second
	SlipVerifyTimeout     = 20 * time.Second
	MaxConcurrentRequests = 100
)

// Search Constants
const (
	MaxSearchResults = 100
)

// Security Constants
const (
	SessionTimeout    = 24 * time.Hour * 7
	SessionCookieName = "dhamma_session"

	MaxDisplayNameLength = 64
)
