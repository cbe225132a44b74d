package dashboard_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/coastkit/internal/carbonate"
	"github.com/san-kum/coastkit/internal/dashboard"
	"github.com/san-kum/coastkit/internal/plot"
	"github.com/san-kum/coastkit/internal/sediment"
	"github.com/san-kum/coastkit/internal/wave"
)

func firstMessage(p *dashboard.Panel) dashboard.Message {
	Expect(p.Messages).NotTo(BeEmpty())
	return p.Messages[0]
}

var _ = Describe("Modules", func() {
	It("lists the three sidebar entries in order", func() {
		names := []string{}
		for _, m := range dashboard.Modules() {
			names = append(names, m.String())
		}
		Expect(names).To(Equal([]string{"Wave Modeling", "Sediment Transport", "Shoreline Change Prediction"}))
	})

	It("parses slugs and display names", func() {
		m, err := dashboard.ParseModule("Sediment Transport")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(dashboard.SedimentTransport))

		m, err = dashboard.ParseModule("shoreline")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(dashboard.ShorelineChange))

		_, err = dashboard.ParseModule("tides")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Sediment", func() {
	It("reports the bedload rate", func() {
		p := dashboard.Sediment(sediment.Input{Velocity: 1.0, D50: 0.2})
		Expect(p.Failed()).To(BeFalse())

		m, ok := p.Metric("transport_rate")
		Expect(ok).To(BeTrue())
		Expect(m.Label).To(Equal("Sediment Transport Rate"))
		Expect(m.Value).To(Equal("21.2258 m³/s/m"))
		Expect(m.Raw).To(BeNumerically("~", 21.225779, 1e-5))
	})

	It("warns when the bed is immobile", func() {
		p := dashboard.Sediment(sediment.Input{Velocity: 0.01, D50: 0.2})
		Expect(p.Failed()).To(BeFalse())
		Expect(firstMessage(p).Level).To(Equal(dashboard.LevelWarning))

		m, _ := p.Metric("transport_rate")
		Expect(m.Raw).To(BeZero())
	})

	It("shows calculation errors as messages", func() {
		p := dashboard.Sediment(sediment.Input{Velocity: 1.0, D50: 0})
		Expect(p.Failed()).To(BeTrue())
		msg := firstMessage(p)
		Expect(msg.Level).To(Equal(dashboard.LevelError))
		Expect(msg.Text).To(HavePrefix("Error in sediment transport calculation: "))
		Expect(p.Metrics).To(BeEmpty())
	})

	It("drops non-finite inputs from the report", func() {
		p := dashboard.Sediment(sediment.Input{Velocity: math.NaN(), D50: 0.2})
		Expect(p.Failed()).To(BeTrue())
		Expect(p.Inputs).NotTo(HaveKey("velocity"))
		Expect(p.Inputs).To(HaveKeyWithValue("d50", 0.2))
	})
})

var _ = Describe("Shoreline page", func() {
	reference := carbonate.Input{Alkalinity: 2300, DIC: 2000, Temperature: 20, Salinity: 35}

	It("combines the carbonate lookup and the projection", func() {
		p := dashboard.ShorelinePage(reference, 0.5, 10)
		Expect(p.Failed()).To(BeFalse())
		Expect(p.Title).To(Equal("Shoreline Change Prediction"))

		omega, ok := p.Metric("omega_aragonite")
		Expect(ok).To(BeTrue())
		Expect(omega.Value).To(Equal("3.29"))

		retreat, ok := p.Metric("retreat_m")
		Expect(ok).To(BeTrue())
		Expect(retreat.Value).To(Equal("5.00 meters"))

		Expect(p.Figure).NotTo(BeNil())
		Expect(p.Figure.Kind).To(Equal(plot.Line))
		Expect(p.Series.Y).To(HaveLen(11))
	})

	It("keeps the projection when CO2SYS fails", func() {
		bad := reference
		bad.Salinity = -1
		p := dashboard.ShorelinePage(bad, 0.5, 10)

		Expect(p.Failed()).To(BeTrue())
		Expect(firstMessage(p).Text).To(HavePrefix("Error running CO2SYS: "))
		_, ok := p.Metric("retreat_m")
		Expect(ok).To(BeTrue())
	})

	It("rejects years outside the slider range", func() {
		p := dashboard.Shoreline(0.5, 0)
		Expect(p.Failed()).To(BeTrue())
		Expect(firstMessage(p).Text).To(HavePrefix("Error in shoreline projection: "))
	})

	It("builds an archive report", func() {
		r := dashboard.Shoreline(0.5, 10).Report()
		Expect(r.Module).To(Equal("shoreline"))
		Expect(r.Metrics).To(HaveKeyWithValue("retreat_m", 5.0))
		Expect(r.Summary).To(ContainSubstring("5.00 meters"))
		Expect(r.Series).NotTo(BeNil())
	})
})

var _ = Describe("Wave", func() {
	var path string

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "sample.nc")
		Expect(wave.WriteSample(path, wave.DefaultSampleOptions())).To(Succeed())
	})

	It("loads the dataset and plots the first variable", func() {
		p := dashboard.Wave(dashboard.WaveRequest{Path: path})
		Expect(p.Failed()).To(BeFalse())
		Expect(firstMessage(p)).To(Equal(dashboard.Message{Level: dashboard.LevelSuccess, Text: "Dataset loaded successfully."}))
		Expect(p.Variables).To(Equal([]string{"hs", "tp", "depth"}))
		Expect(p.Variable).To(Equal("hs"))
		Expect(p.TimeSteps).To(Equal(24))
		Expect(p.Figure.Kind).To(Equal(plot.Heatmap))
		Expect(p.Figure.Title).To(Equal("hs, time = 0"))

		cells, ok := p.Metric("valid_cells")
		Expect(ok).To(BeTrue())
		Expect(cells.Value).To(Equal("191"))
	})

	It("reads uploaded bytes", func() {
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())

		p := dashboard.Wave(dashboard.WaveRequest{Name: "upload.nc", Data: data, Variable: "tp", TimeIndex: 5})
		Expect(p.Failed()).To(BeFalse())
		Expect(p.Source).To(Equal("upload.nc"))
		Expect(p.TimeIndex).To(Equal(5))
	})

	It("plots files whose time is the record dimension", func() {
		opts := wave.DefaultSampleOptions()
		opts.Unlimited = true
		rec := filepath.Join(GinkgoT().TempDir(), "records.nc")
		Expect(wave.WriteSample(rec, opts)).To(Succeed())

		p := dashboard.Wave(dashboard.WaveRequest{Path: rec, TimeIndex: 23})
		Expect(p.Failed()).To(BeFalse())
		Expect(p.TimeSteps).To(Equal(24))
		Expect(p.Figure.Title).To(Equal("hs, time = 23"))
	})

	It("reports an out-of-range time index", func() {
		p := dashboard.Wave(dashboard.WaveRequest{Path: path, TimeIndex: 24})
		Expect(p.Failed()).To(BeTrue())
		Expect(p.Messages[len(p.Messages)-1].Text).To(HavePrefix("Failed to load dataset: "))
		Expect(p.Variables).NotTo(BeEmpty())
	})

	It("handles a garbage upload without crashing", func() {
		p := dashboard.Wave(dashboard.WaveRequest{Name: "junk.nc", Data: []byte("definitely not netcdf")})
		Expect(p.Failed()).To(BeTrue())
		Expect(strings.HasPrefix(firstMessage(p).Text, "Failed to load dataset: ")).To(BeTrue())
		Expect(p.Figure).To(BeNil())
	})

	It("finds the swell period in the spectrum", func() {
		p := dashboard.WaveSpectrum(dashboard.WaveRequest{Path: path})
		Expect(p.Failed()).To(BeFalse())
		m, ok := p.Metric("dominant_period")
		Expect(ok).To(BeTrue())
		Expect(m.Raw).To(BeNumerically("~", 6, 1e-9))
	})
})

var _ = Describe("Count", func() {
	It("groups thousands", func() {
		Expect(dashboard.Count(191)).To(Equal("191"))
		Expect(dashboard.Count(1234567)).To(Equal("1,234,567"))
	})
})
