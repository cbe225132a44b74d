package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/san-kum/coastkit/internal/config"
	"github.com/san-kum/coastkit/internal/server"
	"github.com/san-kum/coastkit/internal/wave"
)

type panelBody struct {
	Kind     string `json:"kind"`
	Messages []struct {
		Level string `json:"level"`
		Text  string `json:"text"`
	} `json:"messages"`
	Metrics []struct {
		Key   string  `json:"key"`
		Value string  `json:"value"`
		Raw   float64 `json:"raw"`
	} `json:"metrics"`
	Variables []string `json:"variables"`
	TimeSteps int      `json:"time_steps"`
}

func (p panelBody) metric(key string) string {
	for _, m := range p.Metrics {
		if m.Key == key {
			return m.Value
		}
	}
	return ""
}

func decodePanel(res *http.Response) panelBody {
	defer res.Body.Close()
	var p panelBody
	Expect(json.NewDecoder(res.Body).Decode(&p)).To(Succeed())
	return p
}

func upload(url, filename string, data []byte, fields map[string]string) *http.Response {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = fw.Write(data)
	Expect(err).NotTo(HaveOccurred())
	for k, v := range fields {
		Expect(mw.WriteField(k, v)).To(Succeed())
	}
	Expect(mw.Close()).To(Succeed())

	res, err := http.Post(url, mw.FormDataContentType(), &body)
	Expect(err).NotTo(HaveOccurred())
	return res
}

var _ = Describe("Server", func() {
	var ts *httptest.Server

	BeforeEach(func() {
		srv := server.New(config.DefaultConfig(), zerolog.Nop())
		ts = httptest.NewServer(srv.Handler())
	})

	AfterEach(func() {
		ts.Close()
	})

	postJSON := func(path, body string) *http.Response {
		res, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	It("answers health checks", func() {
		res, err := http.Get(ts.URL + "/healthz")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StatusCode).To(Equal(http.StatusOK))
	})

	It("serves the single page with the module selector", func() {
		res, err := http.Get(ts.URL + "/")
		Expect(err).NotTo(HaveOccurred())
		defer res.Body.Close()
		Expect(res.StatusCode).To(Equal(http.StatusOK))

		body, _ := io.ReadAll(res.Body)
		Expect(string(body)).To(ContainSubstring("Coastal &amp; Ocean Engineering Toolkit"))
		Expect(string(body)).To(ContainSubstring("Shoreline Change Prediction"))
		Expect(string(body)).To(ContainSubstring("Calculate Bedload Transport"))
	})

	It("returns 404 for unknown paths", func() {
		res, err := http.Get(ts.URL + "/nope")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StatusCode).To(Equal(http.StatusNotFound))
	})

	Describe("sediment", func() {
		It("computes the transport rate", func() {
			res := postJSON("/api/sediment", `{"velocity": 1.0, "d50": 0.2}`)
			Expect(res.StatusCode).To(Equal(http.StatusOK))
			Expect(decodePanel(res).metric("transport_rate")).To(Equal("21.2258 m³/s/m"))
		})

		It("uses configured defaults for missing fields", func() {
			res := postJSON("/api/sediment", `{}`)
			Expect(res.StatusCode).To(Equal(http.StatusOK))
			Expect(decodePanel(res).metric("transport_rate")).To(Equal("21.2258 m³/s/m"))
		})

		It("answers 422 with the message on calculation errors", func() {
			res := postJSON("/api/sediment", `{"velocity": 1.0, "d50": -3}`)
			Expect(res.StatusCode).To(Equal(http.StatusUnprocessableEntity))
			p := decodePanel(res)
			Expect(p.Messages).NotTo(BeEmpty())
			Expect(p.Messages[0].Text).To(HavePrefix("Error in sediment transport calculation: "))
		})

		It("answers 400 for malformed JSON", func() {
			res := postJSON("/api/sediment", `{"velocity": "fast"}`)
			Expect(res.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects other methods", func() {
			res, err := http.Get(ts.URL + "/api/sediment")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusMethodNotAllowed))
		})
	})

	Describe("carbonate and shoreline", func() {
		It("reports the aragonite saturation state", func() {
			res := postJSON("/api/carbonate", `{"alkalinity": 2300, "dic": 2000, "temperature": 20, "salinity": 35}`)
			Expect(res.StatusCode).To(Equal(http.StatusOK))
			Expect(decodePanel(res).metric("omega_aragonite")).To(Equal("3.29"))
		})

		It("reports CO2SYS errors", func() {
			res := postJSON("/api/carbonate", `{"alkalinity": 0}`)
			Expect(res.StatusCode).To(Equal(http.StatusUnprocessableEntity))
			Expect(decodePanel(res).Messages[0].Text).To(HavePrefix("Error running CO2SYS: "))
		})

		It("projects the retreat", func() {
			res := postJSON("/api/shoreline", `{"rate": 0.5, "years": 10}`)
			Expect(res.StatusCode).To(Equal(http.StatusOK))
			Expect(decodePanel(res).metric("retreat_m")).To(Equal("5.00 meters"))
		})

		It("draws the projection", func() {
			res, err := http.Get(ts.URL + "/api/shoreline/plot?rate=0.5&years=10")
			Expect(err).NotTo(HaveOccurred())
			defer res.Body.Close()
			Expect(res.StatusCode).To(Equal(http.StatusOK))
			Expect(res.Header.Get("Content-Type")).To(Equal("image/png"))
			body, _ := io.ReadAll(res.Body)
			Expect(body).To(HavePrefix("\x89PNG"))
		})

		It("refuses a projection beyond the slider", func() {
			res, err := http.Get(ts.URL + "/api/shoreline/plot?years=500")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusUnprocessableEntity))
		})
	})

	Describe("wave", func() {
		var sample []byte

		BeforeEach(func() {
			path := filepath.Join(GinkgoT().TempDir(), "sample.nc")
			Expect(wave.WriteSample(path, wave.DefaultSampleOptions())).To(Succeed())
			var err error
			sample, err = os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
		})

		It("lists the data variables of an upload", func() {
			res := upload(ts.URL+"/api/wave/variables", "sample.nc", sample, nil)
			Expect(res.StatusCode).To(Equal(http.StatusOK))
			p := decodePanel(res)
			Expect(p.Variables).To(Equal([]string{"hs", "tp", "depth"}))
			Expect(p.TimeSteps).To(Equal(24))
			Expect(p.Messages[0].Text).To(Equal("Dataset loaded successfully."))
		})

		It("plots a variable at a time index", func() {
			res := upload(ts.URL+"/api/wave/plot", "sample.nc", sample, map[string]string{"var": "hs", "time": "7"})
			defer res.Body.Close()
			Expect(res.StatusCode).To(Equal(http.StatusOK))
			Expect(res.Header.Get("Content-Type")).To(Equal("image/png"))
		})

		It("reports a bad time index as a message", func() {
			res := upload(ts.URL+"/api/wave/plot", "sample.nc", sample, map[string]string{"var": "hs", "time": "99"})
			Expect(res.StatusCode).To(Equal(http.StatusUnprocessableEntity))
			p := decodePanel(res)
			Expect(p.Messages[len(p.Messages)-1].Text).To(HavePrefix("Failed to load dataset: "))
		})

		It("handles a non-NetCDF upload", func() {
			res := upload(ts.URL+"/api/wave/variables", "junk.nc", []byte("plain text"), nil)
			Expect(res.StatusCode).To(Equal(http.StatusUnprocessableEntity))
			Expect(decodePanel(res).Messages[0].Text).To(HavePrefix("Failed to load dataset: "))
		})

		It("filters uploads by extension", func() {
			res := upload(ts.URL+"/api/wave/variables", "sample.csv", sample, nil)
			Expect(res.StatusCode).To(Equal(http.StatusUnprocessableEntity))
		})

		It("requires the file field", func() {
			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			Expect(mw.WriteField("var", "hs")).To(Succeed())
			Expect(mw.Close()).To(Succeed())

			res, err := http.Post(ts.URL+"/api/wave/plot", mw.FormDataContentType(), &body)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})
})

var _ = Describe("Recover", func() {
	It("turns a panic into a 500", func() {
		h := server.Recover(zerolog.Nop(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
	})
})
