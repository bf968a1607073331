package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/MikhailRaia/golinks/internal/model"
	"github.com/MikhailRaia/golinks/internal/service"
)

const maxRequestBody = 64 << 10

// HandleShortenJSON shortens {"url": ...} and answers 201 {"result": short URL}.
func (h *Handler) HandleShortenJSON(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var request model.ShortenRequest
	if err := json.Unmarshal(body, &request); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	code, err := h.urlService.Shorten(r.Context(), request.URL)
	if err != nil {
		h.writeShortenError(w, request.URL, err)
		return
	}

	responseJSON, err := json.Marshal(model.ShortenResponse{
		Result: service.ShortURL(h.baseFor(r), code),
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(responseJSON)
}
