package server

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/energyatlas/pkg/app"
	"github.com/matzehuels/energyatlas/pkg/chart"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/formula"
	"github.com/matzehuels/energyatlas/pkg/pipeline"
	"github.com/matzehuels/energyatlas/pkg/render/nodelink"
	"github.com/matzehuels/energyatlas/pkg/render/sink"
	"github.com/matzehuels/energyatlas/pkg/view"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	s.hub.serve(w, r, hello{Kind: "hello", State: s.app.State()})
}

type hello struct {
	Kind  string    `json:"kind"`
	State app.State `json:"state"`
}

// =============================================================================
// Scene
// =============================================================================

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.State())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Metrics())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	data, err := sink.RenderJSON(s.app.Frame())
	if err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode frame"))
		return
	}
	writeBytes(w, contentTypes[pipeline.FormatJSON], data)
}

func (s *Server) handleFrameSVG(w http.ResponseWriter, r *http.Request) {
	writeBytes(w, contentTypes[pipeline.FormatSVG], s.app.SVG(boolParam(r, "interactive")))
}

func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	dot := nodelink.ToDOT(s.app.Hierarchy(), nodelink.Options{
		Detailed: boolParam(r, "detailed"),
		Metric:   s.app.State().Metric,
	})
	writeBytes(w, contentTypes[pipeline.FormatDOT], []byte(dot))
}

// handleHierarchySVG lays the hierarchy out with Graphviz.
func (s *Server) handleHierarchySVG(w http.ResponseWriter, r *http.Request) {
	dot := nodelink.ToDOT(s.app.Hierarchy(), nodelink.Options{
		Detailed: boolParam(r, "detailed"),
		Metric:   s.app.State().Metric,
	})
	svg, err := nodelink.RenderSVG(r.Context(), dot)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeBytes(w, contentTypes[pipeline.FormatSVG], svg)
}

// handleRender renders a frame in batch, independent of the session.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.writeError(w, apperrors.New(apperrors.ErrCodeUnsupported, "batch rendering is not enabled"))
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts := pipeline.Options{
		View:        q.Get("view"),
		Metric:      q.Get("metric"),
		Country:     q.Get("country"),
		Formats:     []string{format},
		Interactive: boolParam(r, "interactive"),
		Detailed:    boolParam(r, "detailed"),
	}
	var err error
	if opts.Year, err = intParam(r, "year"); err != nil {
		s.writeError(w, err)
		return
	}
	if opts.TopN, err = intParam(r, "top_n"); err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("X-Scene-Hash", res.SceneHash)
	w.Header().Set("X-Cache-Hit", strconv.FormatBool(res.CacheInfo.RenderHit))
	writeBytes(w, contentTypes[format], res.Artifacts[format])
}

// =============================================================================
// Controls
// =============================================================================

type yearRequest struct {
	Year int `json:"year"`
}

type metricRequest struct {
	Metric string `json:"metric"`
}

type topNRequest struct {
	TopN int `json:"top_n"`
}

type viewRequest struct {
	View view.Mode `json:"view"`
}

type pointerRequest struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type dragRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type zoomRequest struct {
	K float64 `json:"k"`
}

type sizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type playResponse struct {
	State   string `json:"state"`
	Playing bool   `json:"playing"`
}

func (s *Server) handleYear(w http.ResponseWriter, r *http.Request) {
	var req yearRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w)(s.app.SetYear(req.Year))
}

func (s *Server) handleMetric(w http.ResponseWriter, r *http.Request) {
	var req metricRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w)(s.app.SetMetric(req.Metric))
}

func (s *Server) handleTopN(w http.ResponseWriter, r *http.Request) {
	var req topNRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w)(s.app.SetTopN(req.TopN))
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w)(s.app.SwitchView(req.View))
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	st, err := s.app.TogglePlay()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playResponse{State: st.String(), Playing: s.app.State().Playing})
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Hover(req.Name, req.X, req.Y))
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Leave(req.Name))
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Drag(req.DX, req.DY))
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Zoom(req.K))
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req sizeRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Resize(req.Width, req.Height))
}

// =============================================================================
// Drill-down
// =============================================================================

type countryRequest struct {
	Country string `json:"country"`
}

type cityRequest struct {
	City string  `json:"city"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type detailResponse struct {
	Status  app.DetailStatus `json:"status"`
	Country string           `json:"country,omitempty"`
	Panel   any              `json:"panel,omitempty"`
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	status, country, panel := s.app.Detail()
	resp := detailResponse{Status: status, Country: country}
	if panel != nil {
		resp.Panel = panel
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelectCountry(w http.ResponseWriter, r *http.Request) {
	var req countryRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.app.SelectCountry(req.Country)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}

func (s *Server) handleDismissDetail(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.DismissDetail())
}

func (s *Server) handleDetailSVG(w http.ResponseWriter, r *http.Request) {
	data, err := s.app.DetailSVG(boolParam(r, "interactive"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeBytes(w, contentTypes[pipeline.FormatSVG], data)
}

func (s *Server) handleHoverCity(w http.ResponseWriter, r *http.Request) {
	var req cityRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.HoverCity(req.City, req.X, req.Y))
}

func (s *Server) handleLeaveCity(w http.ResponseWriter, r *http.Request) {
	var req cityRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.LeaveCity(req.City))
}

// =============================================================================
// Series and formulas
// =============================================================================

type rangeRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type featuresRequest struct {
	Features []string `json:"features"`
}

type seriesResponse struct {
	Title  string           `json:"title"`
	Series []formula.Series `json:"series"`
}

type formulaRequest struct {
	Formula string `json:"formula"`
}

type selectRequest struct {
	On bool `json:"on"`
}

type formulaResponse struct {
	Index    int      `json:"index"`
	Formulas []string `json:"formulas"`
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	series, title := s.app.Series()
	writeJSON(w, http.StatusOK, seriesResponse{Title: title, Series: series})
}

func (s *Server) handleSeriesSVG(w http.ResponseWriter, r *http.Request) {
	opts := chart.Options{}
	var err error
	if opts.Width, err = intParam(r, "width"); err != nil {
		s.writeError(w, err)
		return
	}
	if opts.Height, err = intParam(r, "height"); err != nil {
		s.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := s.app.ChartSVG(&buf, opts); err != nil {
		s.writeError(w, err)
		return
	}
	writeBytes(w, contentTypes[pipeline.FormatSVG], buf.Bytes())
}

func (s *Server) handleSeriesRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.app.SetSeriesRange(req.From, req.To); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlotFeatures(w http.ResponseWriter, r *http.Request) {
	var req featuresRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w)(s.app.PlotFeatures(req.Features))
}

func (s *Server) handleFormulas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, formulaResponse{Index: -1, Formulas: s.app.Formulas()})
}

func (s *Server) handleAddFormula(w http.ResponseWriter, r *http.Request) {
	var req formulaRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	i, err := s.app.AddFormula(req.Formula)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, formulaResponse{Index: i, Formulas: s.app.Formulas()})
}

func (s *Server) handleSelectFormula(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 {
		s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid formula index %q", chi.URLParam(r, "index")))
		return
	}
	var req selectRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.app.SelectFormula(i, req.On)
	writeJSON(w, http.StatusOK, formulaResponse{Index: i, Formulas: s.app.Formulas()})
}

func (s *Server) handlePlotFormulas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.PlotFormulas())
}

// =============================================================================
// Helpers
// =============================================================================

// respond writes the result of a control call.
func (s *Server) respond(w http.ResponseWriter) func(app.Output, error) {
	return func(out app.Output, err error) {
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func boolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

// intParam parses an optional integer query parameter; absent is 0.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid %s %q", name, raw)
	}
	return v, nil
}
