package httpapi

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"sync/atomic"

	"offersearch-engine/internal/config"
)

type ConfigHandler struct {
	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cur := h.CfgVal.Load().(config.Config)
	writeJSON(w, cur)
}

// Put replaces the config. Selector and source changes take effect on the
// next restart; the engines are built once at startup.
func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	var incoming config.Config
	if err := decodeJSON(w, r, &incoming, true); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		// Return structured errors so the UI can show them nicely
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(vr)
		return
	}

	if err := config.SaveAtomic(h.UserCfgPath, normalized); err != nil {
		WriteError(w, r, http.StatusBadRequest, "save_failed", err.Error())
		return
	}

	saved, err := h.LoadCfg()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "reload_failed", "saved but reload failed: "+err.Error())
		return
	}
	h.CfgVal.Store(saved)
	writeJSON(w, saved)
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.UserCfgPath)
	writeJSON(w, map[string]any{"path": abs})
}

func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	cur := h.CfgVal.Load().(config.Config)
	_, vr := config.NormalizeAndValidate(cur)
	writeJSON(w, vr)
}
