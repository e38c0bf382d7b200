package middleware

import "net/http"

// EnforceTLS redirects plain-HTTP requests that arrive via a proxy and stamps
// HSTS on everything else. Behind the edge this is belt-and-braces; direct
// exposure without TLS is a misconfiguration we refuse to serve.
func EnforceTLS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "http" {
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}
