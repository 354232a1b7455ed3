package bridgeapi

import "time"

const (
	DefaultBaseURL = "https://bridge.api.cx.metamask.io"

	PopularTokensPath = "/getTokens/popular"
	SearchTokensPath  = "/getTokens/search"

	HeaderClientID      = "X-Client-Id"
	HeaderClientVersion = "Client-Version"

	DefaultRequestsPerSecond = 10
	defaultTimeout           = 30 * time.Second
	defaultMaxRetries        = 3

	// upstream bodies larger than this are rejected
	maxResponseBytes = 10 << 20
)
