package catalog

import "git.home.luguber.info/inful/errdetective/internal/taxonomy"

// defaultStatusRules is the base HTTP status table.
var defaultStatusRules = map[int]Rule{
	400: {taxonomy.CategoryInvalidParam, false},
	401: {taxonomy.CategoryAuthError, false},
	403: {taxonomy.CategoryAccessDenied, false},
	404: {taxonomy.CategoryResourceNotFound, false},
	409: {taxonomy.CategoryConflict, false},
	410: {taxonomy.CategoryGone, false},
	413: {taxonomy.CategoryPayloadTooLarge, false},
	415: {taxonomy.CategoryUnsupportedMediaType, false},
	422: {taxonomy.CategoryInvalidParam, false},
	426: {taxonomy.CategoryPlanLimitation, false},
	429: {taxonomy.CategoryRateLimit, true},
	500: {taxonomy.CategoryServerError, true},
	502: {taxonomy.CategoryServerError, true},
	503: {taxonomy.CategoryServerError, true},
	504: {taxonomy.CategoryTimeoutError, true},
}

type patternSpec struct {
	expr      string
	category  taxonomy.Category
	retryable bool
}

// defaultPatterns are matched against case-folded messages. Order matters:
// more specific expressions come before generic ones and the first match wins.
var defaultPatterns = []patternSpec{
	{`reply token (has )?expired|expired reply token`, taxonomy.CategoryReplyTokenExpired, false},
	{`reply token (has )?(already )?(been )?used`, taxonomy.CategoryReplyTokenUsed, false},
	{`invalid reply token|reply token is invalid`, taxonomy.CategoryInvalidReplyToken, false},
	{`invalid signature`, taxonomy.CategoryInvalidSignature, false},
	{`access token (has )?expired|expired (access )?token`, taxonomy.CategoryExpiredToken, false},
	{`invalid token|invalid access token`, taxonomy.CategoryInvalidToken, false},
	{`monthly limit`, taxonomy.CategoryQuotaExceeded, false},
	{`request body error|request body has \d+ errors?`, taxonomy.CategoryInvalidRequestBody, false},
	{`plan subscription required|subscription required|plan limitation`, taxonomy.CategoryPlanLimitation, false},
	{`not authorized|unauthorized|invalid channel access token`, taxonomy.CategoryAuthError, false},
	{`too many requests|rate limit exceeded`, taxonomy.CategoryRateLimit, true},
	{`quota exceeded`, taxonomy.CategoryQuotaExceeded, false},
	{`invalid user id|user not found`, taxonomy.CategoryUserNotFound, false},
	{`invalid message|message format|invalid json`, taxonomy.CategoryInvalidJSON, false},
	{`invalid webhook|webhook url`, taxonomy.CategoryWebhookError, false},
	{`feature not available|not supported`, taxonomy.CategoryPlanLimitation, false},
}

const (
	docChannelToken = "https://developers.line.biz/en/docs/basics/channel-access-token/"
	docReference    = "https://developers.line.biz/en/reference/messaging-api/"
	docSupport      = "https://developers.line.biz/en/support/"
	docRateLimits   = "https://developers.line.biz/en/reference/messaging-api/#rate-limits"
	docCommonSpecs  = "https://developers.line.biz/en/reference/messaging-api/#common-specifications"
	docRichMenus    = "https://developers.line.biz/en/docs/messaging-api/using-rich-menus/"
	docSignature    = "https://developers.line.biz/en/reference/messaging-api/#signature-validation"
	docReply        = "https://developers.line.biz/en/reference/messaging-api/#send-reply-message"
	docAudience     = "https://developers.line.biz/en/reference/messaging-api/#manage-audience-group"
	docConsole      = "https://developers.line.biz/en/docs/line-developers-console/"
	docPlans        = "https://www.lycbiz.com/jp/service/line-official-account/plan/"
	docQuota        = "https://developers.line.biz/en/reference/messaging-api/#get-quota"
)

// defaultDetails is the category-generic guidance.
var defaultDetails = map[taxonomy.Category]taxonomy.Details{
	taxonomy.CategoryAuthError: {
		Description: "Authentication failed. The channel access token is invalid or has expired.",
		Action:      "Issue a valid channel access token and configure it again.",
		DocURL:      docChannelToken,
	},
	taxonomy.CategoryInvalidToken: {
		Description: "The specified token is invalid.",
		Action:      "Use the correct token or issue a new one.",
		DocURL:      docChannelToken,
	},
	taxonomy.CategoryExpiredToken: {
		Description: "The channel access token has expired.",
		Action:      "Issue a new channel access token; short-lived tokens must be refreshed.",
		DocURL:      docChannelToken,
	},
	taxonomy.CategoryInvalidSignature: {
		Description: "The webhook signature could not be verified.",
		Action:      "Verify the X-Line-Signature header with the correct channel secret and the raw request body.",
		DocURL:      docSignature,
	},
	taxonomy.CategoryRateLimit: {
		Description: "The API rate limit was exceeded.",
		Action:      "Wait for the rate limit to recover, then retry.",
		DocURL:      docRateLimits,
	},
	taxonomy.CategoryQuotaExceeded: {
		Description: "The monthly message quota was exceeded.",
		Action:      "Check the remaining quota or upgrade the plan.",
		DocURL:      docQuota,
	},
	taxonomy.CategoryConcurrentLimit: {
		Description: "Too many concurrent requests were made.",
		Action:      "Reduce concurrency and retry after a short wait.",
		DocURL:      docRateLimits,
	},
	taxonomy.CategoryInvalidParam: {
		Description: "A request parameter is invalid.",
		Action:      "Check the request parameters against the API reference.",
		DocURL:      docReference,
	},
	taxonomy.CategoryInvalidRequestBody: {
		Description: "The request body is invalid.",
		Action:      "Fix the fields listed in the error details.",
		DocURL:      docCommonSpecs,
	},
	taxonomy.CategoryInvalidJSON: {
		Description: "The message object or JSON payload is malformed.",
		Action:      "Validate the JSON and the message object format.",
		DocURL:      docCommonSpecs,
	},
	taxonomy.CategoryInvalidContentType: {
		Description: "The Content-Type header is not accepted by this endpoint.",
		Action:      "Send the Content-Type the endpoint expects, usually application/json.",
		DocURL:      docCommonSpecs,
	},
	taxonomy.CategoryPayloadTooLarge: {
		Description: "The request is larger than the allowed limit.",
		Action:      "Reduce the request size to 2 MB or less.",
		DocURL:      docCommonSpecs,
	},
	taxonomy.CategoryUnsupportedMediaType: {
		Description: "The uploaded media type is not supported.",
		Action:      "Upload JPEG or PNG content where images are expected.",
		DocURL:      docCommonSpecs,
	},
	taxonomy.CategoryUserNotFound: {
		Description: "The user does not exist or the user ID is invalid.",
		Action:      "Check the user ID; IDs differ between providers.",
		DocURL:      docReference,
	},
	taxonomy.CategoryResourceNotFound: {
		Description: "The specified resource was not found.",
		Action:      "Specify a correct resource ID.",
		DocURL:      docReference,
	},
	taxonomy.CategoryProfileNotAccessible: {
		Description: "The profile of this user cannot be accessed.",
		Action:      "Profiles are only available for users who added the bot as a friend.",
		DocURL:      "https://developers.line.biz/en/reference/messaging-api/#get-profile",
	},
	taxonomy.CategoryUserBlocked: {
		Description: "The profile cannot be accessed because the user has blocked the bot.",
		Action:      "Profiles of users who blocked the bot are unavailable. Try another user.",
		DocURL:      "https://developers.line.biz/en/reference/messaging-api/#get-profile",
	},
	taxonomy.CategoryMessageSendFailed: {
		Description: "The message could not be sent.",
		Action:      "Check the recipient and review the message content.",
		DocURL:      "https://developers.line.biz/en/docs/messaging-api/sending-messages/",
	},
	taxonomy.CategoryInvalidReplyToken: {
		Description: "The reply token is invalid.",
		Action:      "Use a correct reply token. Each reply token can be used only once.",
		DocURL:      docReply,
	},
	taxonomy.CategoryReplyTokenExpired: {
		Description: "The reply token has expired.",
		Action:      "Reply sooner after receiving the event, or send a push message instead.",
		DocURL:      docReply,
	},
	taxonomy.CategoryReplyTokenUsed: {
		Description: "The reply token has already been used.",
		Action:      "Send at most one reply per token; use push messages for follow-ups.",
		DocURL:      docReply,
	},
	taxonomy.CategoryForbidden: {
		Description: "The operation is forbidden for this channel.",
		Action:      "Check the channel permissions in the console.",
		DocURL:      docConsole,
	},
	taxonomy.CategoryAccessDenied: {
		Description: "Access was denied.",
		Action:      "Obtain the required permissions, then retry.",
		DocURL:      docConsole,
	},
	taxonomy.CategoryPlanLimitation: {
		Description: "This feature is not available on the current plan.",
		Action:      "Upgrade the plan or use an alternative approach.",
		DocURL:      docPlans,
	},
	taxonomy.CategoryServerError: {
		Description: "An internal error occurred on the platform servers.",
		Action:      "Wait a while, then retry.",
		DocURL:      docSupport,
	},
	taxonomy.CategoryNetworkError: {
		Description: "A network error occurred while calling the API.",
		Action:      "Check network connectivity and retry.",
		DocURL:      docSupport,
	},
	taxonomy.CategoryTimeoutError: {
		Description: "The request timed out.",
		Action:      "Retry with backoff; check whether the request was already processed before resending.",
		DocURL:      docSupport,
	},
	taxonomy.CategoryConnectionError: {
		Description: "The connection to the API failed.",
		Action:      "Check DNS, proxies and TLS settings, then retry.",
		DocURL:      docSupport,
	},
	taxonomy.CategoryRichMenuError: {
		Description: "An error occurred while processing the rich menu.",
		Action:      "Check the rich menu settings.",
		DocURL:      docRichMenus,
	},
	taxonomy.CategoryRichMenuSizeError: {
		Description: "The rich menu size or format is invalid.",
		Action:      "Check the rich menu image size and format.",
		DocURL:      docRichMenus + "#uploading-rich-menu-images",
	},
	taxonomy.CategoryAudienceError: {
		Description: "An error occurred while processing the audience.",
		Action:      "Check the audience settings.",
		DocURL:      docAudience,
	},
	taxonomy.CategoryAudienceSizeError: {
		Description: "The audience is too large or too small for this operation.",
		Action:      "Check the number of users in the audience.",
		DocURL:      docAudience,
	},
	taxonomy.CategoryWebhookError: {
		Description: "An error occurred while processing the webhook.",
		Action:      "Check the webhook endpoint and its HTTPS settings.",
		DocURL:      "https://developers.line.biz/en/reference/messaging-api/#webhooks",
	},
	taxonomy.CategoryConflict: {
		Description: "The request conflicts with the current state of the resource.",
		Action:      "Fetch the current state and retry with a fresh retry key if needed.",
		DocURL:      docCommonSpecs,
	},
	taxonomy.CategoryGone: {
		Description: "The resource is no longer available.",
		Action:      "Stop requesting this resource.",
		DocURL:      docReference,
	},
	taxonomy.CategoryUnknown: {
		Description: "An unknown error occurred.",
		Action:      "Review the error details and contact support if needed.",
		DocURL:      docSupport,
	},
}
