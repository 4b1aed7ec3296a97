package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/minerbridge/internal/minerapi"
)

// maxGPUFanout bounds concurrent daemon connections for GET /gpus.
const maxGPUFanout = 4

// maxGPUs bounds the count GET /gpus will trust from the daemon.
const maxGPUs = 256

type errorBody struct {
	Message string `json:"message"`
}

type gpuListBody struct {
	Status minerapi.Status `json:"status"`
	GPUs   []minerapi.GPU  `json:"data"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	result, err := s.api.Summary(r.Context())
	s.respond(w, r, result, err)
}

func (s *Server) handleGPUCount(w http.ResponseWriter, r *http.Request) {
	result, err := s.api.GPUCount(r.Context())
	s.respond(w, r, result, err)
}

func (s *Server) handleGPU(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	result, err := s.api.GPU(r.Context(), index)
	s.respond(w, r, result, err)
}

func (s *Server) handleEnableGPU(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	status, err := s.api.EnableGPU(r.Context(), index)
	s.respond(w, r, status, err)
}

func (s *Server) handleDisableGPU(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	status, err := s.api.DisableGPU(r.Context(), index)
	s.respond(w, r, status, err)
}

// handleGPUList asks for the GPU count, then fetches every GPU concurrently
// and returns them in index order.
func (s *Server) handleGPUList(w http.ResponseWriter, r *http.Request) {
	count, err := s.api.GPUCount(r.Context())
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	if count.Count == nil || count.Status.Failed() {
		writeJSON(w, http.StatusOK, gpuListBody{Status: count.Status, GPUs: []minerapi.GPU{}})
		return
	}
	n := count.Count.Count
	if n < 0 {
		s.respond(w, r, nil, fmt.Errorf("miner reported negative gpu count %d", n))
		return
	}
	if n > maxGPUs {
		s.respond(w, r, nil, fmt.Errorf("miner reported gpu count %d, more than the %d supported", n, maxGPUs))
		return
	}

	perIndex := make([][]minerapi.GPU, n)
	g, gctx := errgroup.WithContext(r.Context())
	g.SetLimit(maxGPUFanout)
	for i := range perIndex {
		g.Go(func() error {
			result, err := s.api.GPU(gctx, i)
			if err != nil {
				return fmt.Errorf("gpu %d: %w", i, err)
			}
			if result.Status.Failed() {
				return fmt.Errorf("gpu %d: miner reported %s: %s", i, result.Status.STATUS, result.Status.Msg)
			}
			perIndex[i] = result.GPUs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.respond(w, r, nil, err)
		return
	}

	gpus := make([]minerapi.GPU, 0, len(perIndex))
	for _, items := range perIndex {
		gpus = append(gpus, items...)
	}
	writeJSON(w, http.StatusOK, gpuListBody{Status: count.Status, GPUs: gpus})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, body any, err error) {
	if err != nil {
		s.logger.Warn("miner request failed",
			"request_id", RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := minerapi.ParseIndex(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return index, true
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorBody{Message: message})
}
