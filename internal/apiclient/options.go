package apiclient

import "net/url"

type requestOptions struct {
	token     string
	anonymous bool
	query     url.Values
}

// A 401 on a request that does not use the stored credential says nothing about the session
func (ro *requestOptions) observe() bool {
	return !ro.anonymous && ro.token == ""
}

type RequestOption func(*requestOptions)

// WithToken sends the given access token instead of the stored one.
// A 401 answer does not reach the unauthorized observer
func WithToken(access string) RequestOption {
	return func(ro *requestOptions) { ro.token = access }
}

// Anonymous sends no bearer token at all. A 401 answer does not reach the unauthorized observer
func Anonymous() RequestOption {
	return func(ro *requestOptions) { ro.anonymous = true }
}

// WithQuery sets the query string. Empty values are dropped
func WithQuery(q url.Values) RequestOption {
	return func(ro *requestOptions) {
		if ro.query == nil {
			ro.query = url.Values{}
		}
		for k, vs := range q {
			for _, v := range vs {
				if v != "" {
					ro.query.Add(k, v)
				}
			}
		}
	}
}
