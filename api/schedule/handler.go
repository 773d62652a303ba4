package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wI2L/jsondiff"

	"github.com/SonJH7/status-allocation-berths/core/logger"
	"github.com/SonJH7/status-allocation-berths/core/model"
	coreschedule "github.com/SonJH7/status-allocation-berths/core/schedule"
)

// Engine is the slice of the version manager the API needs.
type Engine interface {
	ApplyEdit(ctx context.Context, p model.EditProposal) (coreschedule.Result, error)
	Revert(ctx context.Context, targetVersionID string) (string, error)
	Compare(ctx context.Context, aID, bID string) (model.Diff, error)
	GetVersion(ctx context.Context, id string) (model.Version, []model.Assignment, error)
	ListVersions(ctx context.Context) ([]model.Version, error)
}

type rejection struct {
	Reason       string   `json:"reason"`
	OffendingIDs []string `json:"offending_ids,omitempty"`
}

// NewHandler returns the schedule API. Only plain data crosses this boundary.
func NewHandler(eng Engine, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop{}
	}
	h := &handler{eng: eng, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/schedule/edit", h.edit)
	mux.HandleFunc("POST /api/schedule/revert", h.revert)
	mux.HandleFunc("GET /api/schedule/versions", h.listVersions)
	mux.HandleFunc("GET /api/schedule/versions/{id}", h.getVersion)
	mux.HandleFunc("GET /api/schedule/compare", h.compare)
	return mux
}

type handler struct {
	eng Engine
	log logger.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handler) edit(w http.ResponseWriter, r *http.Request) {
	var p model.EditProposal
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "malformed proposal", http.StatusBadRequest)
		return
	}
	res, err := h.eng.ApplyEdit(r.Context(), p)
	if err != nil {
		if rej, ok := coreschedule.AsRejected(err); ok {
			writeJSON(w, http.StatusConflict, rejection{
				Reason:       string(rej.Reason),
				OffendingIDs: rej.OffendingIDs,
			})
			return
		}
		if errors.Is(err, coreschedule.ErrUnknownAssignment) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Errorf("apply edit: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) revert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VersionID string `json:"version_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VersionID == "" {
		http.Error(w, "version_id is required", http.StatusBadRequest)
		return
	}
	id, err := h.eng.Revert(r.Context(), req.VersionID)
	if err != nil {
		h.respondVersionErr(w, err, "revert")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"version_id": id})
}

func (h *handler) listVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.eng.ListVersions(r.Context())
	if err != nil {
		h.log.Errorf("list versions: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (h *handler) getVersion(w http.ResponseWriter, r *http.Request) {
	v, set, err := h.eng.GetVersion(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondVersionErr(w, err, "get version")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Version     model.Version      `json:"version"`
		Assignments []model.Assignment `json:"assignments"`
	}{v, set})
}

// compare serves the A/B view. The default response is the field-level diff;
// format=patch returns an RFC 6902 patch between the two assignment sets.
func (h *handler) compare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	aID, bID := q.Get("a"), q.Get("b")
	if aID == "" || bID == "" {
		http.Error(w, "query parameters a and b are required", http.StatusBadRequest)
		return
	}
	if q.Get("format") == "patch" {
		h.comparePatch(w, r, aID, bID)
		return
	}
	diff, err := h.eng.Compare(r.Context(), aID, bID)
	if err != nil {
		h.respondVersionErr(w, err, "compare")
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

func (h *handler) comparePatch(w http.ResponseWriter, r *http.Request, aID, bID string) {
	_, aSet, err := h.eng.GetVersion(r.Context(), aID)
	if err != nil {
		h.respondVersionErr(w, err, "compare")
		return
	}
	_, bSet, err := h.eng.GetVersion(r.Context(), bID)
	if err != nil {
		h.respondVersionErr(w, err, "compare")
		return
	}
	patch, err := jsondiff.Compare(assignmentsByID(aSet), assignmentsByID(bSet))
	if err != nil {
		h.log.Errorf("compare patch: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, patch)
}

func assignmentsByID(set []model.Assignment) map[string]model.Assignment {
	out := make(map[string]model.Assignment, len(set))
	for _, a := range set {
		out[a.ID] = a
	}
	return out
}

func (h *handler) respondVersionErr(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, coreschedule.ErrUnknownVersion) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if errors.Is(err, coreschedule.ErrConcurrentModification) {
		writeJSON(w, http.StatusConflict, rejection{Reason: string(coreschedule.ReasonConcurrentModification)})
		return
	}
	h.log.Errorf("%s: %v", op, err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
