// Package taxonomy defines the closed vocabulary shared by the catalog, the
// classification engine and the analyzer: error categories, severities,
// endpoint keys and guidance details.
package taxonomy

// Category is the normalized label assigned to a messaging API error.
type Category string

const (
	// Authentication and tokens
	CategoryAuthError        Category = "AUTH_ERROR"
	CategoryInvalidToken     Category = "INVALID_TOKEN"
	CategoryExpiredToken     Category = "EXPIRED_TOKEN"
	CategoryInvalidSignature Category = "INVALID_SIGNATURE"

	// Rate limits and quotas
	CategoryRateLimit       Category = "RATE_LIMIT"
	CategoryQuotaExceeded   Category = "QUOTA_EXCEEDED"
	CategoryConcurrentLimit Category = "CONCURRENT_LIMIT"

	// Request shape
	CategoryInvalidParam         Category = "INVALID_PARAM"
	CategoryInvalidRequestBody   Category = "INVALID_REQUEST_BODY"
	CategoryInvalidJSON          Category = "INVALID_JSON"
	CategoryInvalidContentType   Category = "INVALID_CONTENT_TYPE"
	CategoryPayloadTooLarge      Category = "PAYLOAD_TOO_LARGE"
	CategoryUnsupportedMediaType Category = "UNSUPPORTED_MEDIA_TYPE"

	// Users and resources
	CategoryUserNotFound         Category = "USER_NOT_FOUND"
	CategoryResourceNotFound     Category = "RESOURCE_NOT_FOUND"
	CategoryProfileNotAccessible Category = "PROFILE_NOT_ACCESSIBLE"
	CategoryUserBlocked          Category = "USER_BLOCKED"

	// Message delivery
	CategoryMessageSendFailed Category = "MESSAGE_SEND_FAILED"
	CategoryInvalidReplyToken Category = "INVALID_REPLY_TOKEN"
	CategoryReplyTokenExpired Category = "REPLY_TOKEN_EXPIRED"
	CategoryReplyTokenUsed    Category = "REPLY_TOKEN_USED"

	// Permissions
	CategoryForbidden      Category = "FORBIDDEN"
	CategoryAccessDenied   Category = "ACCESS_DENIED"
	CategoryPlanLimitation Category = "PLAN_LIMITATION"

	// Platform and network
	CategoryServerError     Category = "SERVER_ERROR"
	CategoryNetworkError    Category = "NETWORK_ERROR"
	CategoryTimeoutError    Category = "TIMEOUT_ERROR"
	CategoryConnectionError Category = "CONNECTION_ERROR"

	// Rich menus
	CategoryRichMenuError     Category = "RICH_MENU_ERROR"
	CategoryRichMenuSizeError Category = "RICH_MENU_SIZE_ERROR"

	// Audiences
	CategoryAudienceError     Category = "AUDIENCE_ERROR"
	CategoryAudienceSizeError Category = "AUDIENCE_SIZE_ERROR"

	// Webhooks
	CategoryWebhookError Category = "WEBHOOK_ERROR"

	// Everything else
	CategoryConflict Category = "CONFLICT"
	CategoryGone     Category = "GONE"
	CategoryUnknown  Category = "UNKNOWN"
)

var allCategories = []Category{
	CategoryAuthError, CategoryInvalidToken, CategoryExpiredToken, CategoryInvalidSignature,
	CategoryRateLimit, CategoryQuotaExceeded, CategoryConcurrentLimit,
	CategoryInvalidParam, CategoryInvalidRequestBody, CategoryInvalidJSON,
	CategoryInvalidContentType, CategoryPayloadTooLarge, CategoryUnsupportedMediaType,
	CategoryUserNotFound, CategoryResourceNotFound, CategoryProfileNotAccessible, CategoryUserBlocked,
	CategoryMessageSendFailed, CategoryInvalidReplyToken, CategoryReplyTokenExpired, CategoryReplyTokenUsed,
	CategoryForbidden, CategoryAccessDenied, CategoryPlanLimitation,
	CategoryServerError, CategoryNetworkError, CategoryTimeoutError, CategoryConnectionError,
	CategoryRichMenuError, CategoryRichMenuSizeError,
	CategoryAudienceError, CategoryAudienceSizeError,
	CategoryWebhookError,
	CategoryConflict, CategoryGone, CategoryUnknown,
}

var categorySet = func() map[Category]struct{} {
	m := make(map[Category]struct{}, len(allCategories))
	for _, c := range allCategories {
		m[c] = struct{}{}
	}
	return m
}()

// AllCategories returns every known category in declaration order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	_, ok := categorySet[c]
	return ok
}

func (c Category) String() string { return string(c) }

// ParseCategory converts raw text into a Category, rejecting unknown values.
func ParseCategory(raw string) (Category, bool) {
	c := Category(raw)
	if !c.Valid() {
		return "", false
	}
	return c, true
}

// Severity indicates how much of an integration an error takes down.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL" // service-wide outage
	SeverityHigh     Severity = "HIGH"     // a feature is unusable
	SeverityMedium   Severity = "MEDIUM"   // partial impact
	SeverityLow      Severity = "LOW"
)

var severities = map[Category]Severity{
	CategoryAuthError:        SeverityCritical,
	CategoryInvalidToken:     SeverityCritical,
	CategoryExpiredToken:     SeverityCritical,
	CategoryInvalidSignature: SeverityCritical,
	CategoryServerError:      SeverityHigh,
	CategoryTimeoutError:     SeverityHigh,
	CategoryNetworkError:     SeverityHigh,
	CategoryConnectionError:  SeverityHigh,
	CategoryRateLimit:        SeverityHigh,
	CategoryQuotaExceeded:    SeverityHigh,
	CategoryPlanLimitation:   SeverityHigh,
	CategoryAccessDenied:     SeverityHigh,
	CategoryForbidden:        SeverityHigh,
	CategoryWebhookError:     SeverityHigh,
	CategoryUserBlocked:      SeverityLow,
	CategoryUserNotFound:     SeverityLow,
	CategoryReplyTokenUsed:   SeverityLow,
	CategoryGone:             SeverityLow,
}

// SeverityOf returns the default severity for a category. Categories without
// an explicit mapping are MEDIUM.
func SeverityOf(c Category) Severity {
	if s, ok := severities[c]; ok {
		return s
	}
	return SeverityMedium
}
