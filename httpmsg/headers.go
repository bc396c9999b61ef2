// Package httpmsg implements the HTTP message model: typed, is-set header
// slots split into general/entity/request/response tables, query
// parameters and form fields preserving first-occurrence order, and
// cookies, grounded on RFC 2616 §4.5/§7.1/§14.
package httpmsg

import "time"

// GeneralHeaders holds the RFC 2616 §4.5 header subset applicable to both
// requests and responses. A nil pointer field means the slot is unset; it
// participates in emission only when set.
type GeneralHeaders struct {
	CacheControl     *string
	Connection       *string
	Date             *time.Time
	Pragma           *string
	Trailer          *string
	TransferEncoding *string
	Upgrade          *string
	Via              *string
	Warning          *string
}

// EntityHeaders holds the RFC 2616 §7.1 header subset describing the
// message body.
type EntityHeaders struct {
	Allow           *string
	ContentEncoding *string
	ContentLanguage *string
	ContentLength   *uint64
	ContentLocation *string
	ContentMD5      *string
	ContentRange    *string
	ContentType     *string
	ETag            *string
	Expires         *time.Time
	LastModified    *time.Time
}

// RequestHeaders holds request-only header slots.
type RequestHeaders struct {
	Accept             *string
	AcceptCharset      *string
	AcceptEncoding     *string
	AcceptLanguage     *string
	Authorization      *string
	Expect             *string
	From               *string
	Host               *string
	IfMatch            *string
	IfModifiedSince    *time.Time
	IfNoneMatch        *string
	IfRange            *string
	IfUnmodifiedSince  *time.Time
	MaxForwards        *uint64
	ProxyAuthorization *string
	Range              *string
	Referer            *string
	TE                 *string
	UserAgent          *string
}

// ResponseHeaders holds response-only header slots.
type ResponseHeaders struct {
	AcceptRanges      *string
	Age               *uint64
	Location          *string
	ProxyAuthenticate *string
	RetryAfter        *string
	Server            *string
	Vary              *string
	WWWAuthenticate   *string
}

// httpDate formats t in RFC 1123 form as RFC 2616 §3.3.1 requires for
// HTTP-date, e.g. "Sun, 06 Nov 1994 08:49:37 GMT".
func httpDate(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")
}

// parseHTTPDate accepts the three date formats RFC 2616 §3.3.1 allows.
func parseHTTPDate(s string) (time.Time, bool) {
	layouts := []string{
		"Mon, 02 Jan 2006 15:04:05 MST",
		"Monday, 02-Jan-06 15:04:05 MST",
		"Mon Jan  2 15:04:05 2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
