package main

import (
	"net/http"
	"strings"
)

// DetectWAF names a web application firewall from the status code and
// headers of a response, or returns "". A firewall rejecting submissions
// turns every attempt into an http-error failure.
func DetectWAF(status int, header http.Header) string {
	server := strings.ToLower(header.Get("Server"))
	if strings.Contains(server, "cloudflare") || header.Get("CF-Ray") != "" {
		return "Cloudflare"
	}
	if header.Get("X-Sucuri-ID") != "" || strings.Contains(server, "sucuri") {
		return "Sucuri"
	}
	if strings.Contains(server, "akamaighost") {
		return "Akamai"
	}

	switch status {
	case 406, 501:
		return "Mod_Security"
	case 999:
		return "WebKnight"
	case 419:
		return "F5 BIG IP"
	}
	return ""
}
