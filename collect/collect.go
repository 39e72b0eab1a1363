// Package collect moves spectra and triggers between processes over HTTP.
package collect

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"

	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/freq"
	"github.com/hb9tf/burst/metrics"
	"github.com/hb9tf/burst/store"
)

const (
	SourcesEndpoint  = "/burst/v1/sources"
	CollectEndpoint  = "/burst/v1/collect"
	TriggersEndpoint = "/burst/v1/triggers"
	MetricsEndpoint  = "/metrics"
)

// Sink accepts source metadata and spectra. *store.Store, *live.Feed and
// *Client implement it.
type Sink interface {
	PutSource(ctx context.Context, src store.Source) error
	AddSpectra(ctx context.Context, identifier string, spectra []datasource.Spectrum) error
}

// TriggerSink accepts triggers.
type TriggerSink interface {
	AddTrigger(ctx context.Context, t store.Trigger) error
}

type SourceRequest struct {
	Identifier string  `json:"identifier" binding:"required"`
	Source     string  `json:"source" binding:"required"`
	NFreq      int     `json:"nfreq" binding:"gt=0"`
	DeltaF     float64 `json:"deltaF" binding:"required"`
	Freq0      float64 `json:"freq0"`
	DeltaT     float64 `json:"deltaT" binding:"gt=0"`
	MJD        int     `json:"mjd"`
	StartTime  float64 `json:"startTime"`
}

func NewSourceRequest(src store.Source) SourceRequest {
	g := src.Geometry
	return SourceRequest{
		Identifier: src.Identifier,
		Source:     src.Source,
		NFreq:      g.Channels.N,
		DeltaF:     g.Channels.Delta,
		Freq0:      g.Channels.Ref,
		DeltaT:     g.DeltaT,
		MJD:        g.MJD,
		StartTime:  g.StartTime,
	}
}

func (r SourceRequest) AsSource() store.Source {
	return store.Source{
		Identifier: r.Identifier,
		Source:     r.Source,
		Geometry: datasource.Geometry{
			Channels:  freq.Channels{N: r.NFreq, Delta: r.DeltaF, Ref: r.Freq0},
			DeltaT:    r.DeltaT,
			MJD:       r.MJD,
			StartTime: r.StartTime,
		},
	}
}

type CollectRequest struct {
	Identifier string                `json:"identifier" binding:"required"`
	Spectra    []datasource.Spectrum `json:"spectra" binding:"required,min=1,dive"`
}

type collectResponse struct {
	Status      string `json:"status"`
	SampleCount int    `json:"sampleCount"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type server struct {
	sink     Sink
	triggers TriggerSink
	metrics  *metrics.Metrics
}

// NewRouter returns the collection API. The trigger route is only registered
// when triggers is not nil and the metrics route only when m is not nil.
func NewRouter(sink Sink, triggers TriggerSink, m *metrics.Metrics) *gin.Engine {
	s := &server{sink: sink, triggers: triggers, metrics: m}

	r := gin.New()
	r.Use(gin.Recovery(), s.count)
	r.POST(SourcesEndpoint, s.sourcesHandler)
	r.POST(CollectEndpoint, s.collectHandler)
	if triggers != nil {
		r.POST(TriggersEndpoint, s.triggersHandler)
	}
	if m != nil {
		r.GET(MetricsEndpoint, gin.WrapH(m.Handler()))
	}
	return r
}

func (s *server) count(c *gin.Context) {
	c.Next()
	s.metrics.HTTPRequest(c.FullPath(), strconv.Itoa(c.Writer.Status()))
}

func fail(c *gin.Context, code int, err error) {
	glog.Warningf("%s %s: %s\n", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(code, errorResponse{Status: "error", Error: err.Error()})
}

func (s *server) sourcesHandler(c *gin.Context) {
	var req SourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if err := s.sink.PutSource(c.Request.Context(), req.AsSource()); err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	glog.Infof("registered %s source %q with %d channels", req.Source, req.Identifier, req.NFreq)
	c.JSON(http.StatusOK, collectResponse{Status: "ok"})
}

func (s *server) collectHandler(c *gin.Context) {
	var req CollectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if err := s.sink.AddSpectra(c.Request.Context(), req.Identifier, req.Spectra); err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	s.metrics.SpectraCollected(req.Identifier, len(req.Spectra))
	c.JSON(http.StatusOK, collectResponse{Status: "ok", SampleCount: len(req.Spectra)})
}

func (s *server) triggersHandler(c *gin.Context) {
	var triggers []store.Trigger
	if err := c.ShouldBindJSON(&triggers); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	for _, t := range triggers {
		if err := s.triggers.AddTrigger(c.Request.Context(), t); err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
	}
	c.JSON(http.StatusOK, collectResponse{Status: "ok", SampleCount: len(triggers)})
}
