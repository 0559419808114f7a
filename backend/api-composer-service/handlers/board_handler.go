package handlers

import (
	"encoding/json"
	"net/http"

	"fms-project/backend/api-composer-service/services"

	"github.com/gorilla/mux"
)

type BoardHandler struct {
	service *services.ComposerService
}

func NewBoardHandler(service *services.ComposerService) *BoardHandler {
	return &BoardHandler{service: service}
}

func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	board, err := h.service.FetchBoard(r.Context(), projectID, r.Header.Get("Authorization"), r.Header.Get("Role"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(board)
}
