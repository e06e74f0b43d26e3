package httpapi

import (
	"net/http"
	"sync/atomic"

	"offersearch-engine/internal/config"
)

type SecretsHandler struct {
	CfgVal   *atomic.Value // stores config.Config
	SetToken func(cfg config.Config, token string) error
}

type setTokenReq struct {
	Token string `json:"token"`
}

func (h SecretsHandler) SetAPIToken(w http.ResponseWriter, r *http.Request) {
	var req setTokenReq
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := h.SetToken(cfg, req.Token); err != nil {
		WriteError(w, r, http.StatusBadRequest, "token_rejected", "failed to store token: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
