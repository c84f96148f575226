package middleware

import (
	"encoding/json"
	"net/http"

	goGate "github.com/MrEthical07/goGate"
)

// WriteResponse serializes a terminal gate/translator response onto the
// wire. Exactly one body form is honored, in order: redirect, envelope,
// HTML, text.
func WriteResponse(w http.ResponseWriter, resp *goGate.Response) {
	if resp == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	for key, values := range resp.Headers {
		for _, v := range values {
			w.Header().Set(key, v)
		}
	}

	status := resp.Status
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}

	if resp.RedirectURL != "" {
		w.Header().Set("Location", resp.RedirectURL)
		if status < 300 || status > 399 {
			status = http.StatusFound
		}
		w.WriteHeader(status)
		return
	}

	switch {
	case resp.Envelope != nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp.Envelope)
	case resp.HTML != "":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp.HTML))
	case resp.Text != "":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp.Text))
	default:
		w.WriteHeader(status)
	}
}
