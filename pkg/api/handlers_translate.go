package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/live"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/translate"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/validation"
)

// defaultUploadName names uploads that carry no name parameter. Its lack
// of an extension leaves kind detection to the content.
const defaultUploadName = "upload"

// handleTranslate translates the request body. The input kind comes from
// the format parameter or is detected. With save=true the outputs are
// written like a CLI translation and live viewers are notified.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := validation.TranslateRequest{Format: q.Get("format"), Name: q.Get("name")}
	if err := validation.ValidateTranslateRequest(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	save, err := queryBool(r, "save")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := translate.ParseKind(req.Format)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := req.Name
	if name == "" {
		name = defaultUploadName
	}
	res, err := s.translator.Translate(r.Context(), name, data, kind)
	if err != nil {
		status := translateStatus(err)
		if status == http.StatusInternalServerError {
			s.sanitizeError(w, r, err, "translate")
			return
		}
		s.respondError(w, r, status, err.Error())
		return
	}

	resp := TranslateResponse{
		Name:  res.Base,
		Kind:  res.Kind,
		Edges: len(res.Edges),
		Nodes: len(res.Graph.Nodes),
	}
	if save {
		if err := s.translator.Persist(r.Context(), res); err != nil {
			s.sanitizeError(w, r, err, "save translation")
			return
		}
		s.store.Invalidate(res.Base)
		s.hub.Publish(live.GraphUpdated(res.Base))
		resp.Saved = true
		resp.Outputs = &res.Outputs
		s.logger.Info("saved uploaded translation",
			logging.String("graph", res.Base), logging.Format(string(res.Kind)), logging.Edges(len(res.Edges)))
	}
	resp.Graph = res.Graph.Clone().Annotate()
	s.respondJSON(w, http.StatusOK, resp)
}
