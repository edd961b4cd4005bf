package util

import (
	"net/http"
	"net/url"
)

// ProxyFunc builds the transport proxy selector. Explicit configuration
// wins over HTTP_PROXY/HTTPS_PROXY from the environment.
func ProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}
	return func(req *http.Request) (*url.URL, error) {
		switch {
		case req.URL.Scheme == "https" && httpsProxy != "":
			return url.Parse(httpsProxy)
		case httpProxy != "":
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
