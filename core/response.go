package core

import (
	"encoding/json"
	"net/http"
)

const MimeTypeJSON = "application/json"

type jsonResponse struct {
	status int
	body   []byte
}

// JsonBasic contains the basic response fields. All responses must have them
type JsonBasic struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JsonWithData is used for structured JSON responses with data
type JsonWithData struct {
	JsonBasic
	Data any `json:"data,omitempty"`
}

// WriteJsonError writes a precomputed error response
func WriteJsonError(w http.ResponseWriter, resp jsonResponse) {
	setHeaders(w, apiJsonDefaultHeaders)
	w.WriteHeader(resp.status)
	w.Write(resp.body)
}

// WriteJsonOk writes a precomputed success response
func WriteJsonOk(w http.ResponseWriter, resp jsonResponse) {
	setHeaders(w, apiJsonDefaultHeaders)
	w.WriteHeader(resp.status)
	w.Write(resp.body)
}

// writeJsonWithData writes a structured JSON response with the provided data
func writeJsonWithData(w http.ResponseWriter, resp JsonWithData) {
	setHeaders(w, apiJsonDefaultHeaders)
	w.WriteHeader(resp.Status)
	json.NewEncoder(w).Encode(resp)
}
