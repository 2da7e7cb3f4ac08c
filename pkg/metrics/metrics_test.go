package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then it should be created with defaults", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "lineup")
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("search"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "search")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 2, 3})
				So(manager.enabled, ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
			})
		})

		Convey("When registering twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate collectors", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestRecordRun(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When a successful but invalid run is recorded", func() {
			manager.RecordRun(RunObservation{
				Strategy:     "ucb",
				Players:      10,
				Duration:     3 * time.Millisecond,
				TotalBalance: 2,
				Accepted:     4,
				Rejected:     90,
				Violations:   6,
				Valid:        false,
			})

			Convey("Then counters reflect the observation", func() {
				So(testutil.ToFloat64(manager.formulations.WithLabelValues("ucb", "ok")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.swapsAccepted.WithLabelValues("ucb")), ShouldEqual, 4)
				So(testutil.ToFloat64(manager.swapsRejected.WithLabelValues("ucb")), ShouldEqual, 90)
				So(testutil.ToFloat64(manager.swapViolations.WithLabelValues("ucb")), ShouldEqual, 6)
				So(testutil.ToFloat64(manager.formationInvalid.WithLabelValues("ucb")), ShouldEqual, 1)
			})
		})

		Convey("When a failed run is recorded", func() {
			manager.RecordRun(RunObservation{Strategy: "genetic", Err: errors.New("boom")})

			Convey("Then only the error outcome is counted", func() {
				So(testutil.ToFloat64(manager.formulations.WithLabelValues("genetic", "error")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.formulations.WithLabelValues("genetic", "ok")), ShouldEqual, 0)
			})
		})

		Convey("When recording is disabled", func() {
			manager.enabled = false
			manager.RecordRun(RunObservation{Strategy: "thompson", Valid: true})

			Convey("Then nothing is counted", func() {
				So(testutil.ToFloat64(manager.formulations.WithLabelValues("thompson", "ok")), ShouldEqual, 0)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then job and HTTP recorders do not panic", func() {
			So(func() {
				RecordRun(RunObservation{Strategy: "epsilon-greedy", Valid: true})
				RecordJobSubmitted()
				RecordJobDuplicate()
				RecordJobRejected()
				RecordJobCompleted("done")
				UpdateQueueSize(3)
				UpdateQueueCapacity(10)
				UpdateWorkerCount(4)
				WorkerBusy(1)
				WorkerBusy(-1)
				UpdateRecordsStored(7)
				RecordRecordEvicted()
				RecordHTTPRequest("jobs", "POST", "202")
				RecordHTTPRequestDuration("jobs", "POST", "202", 1.5)
				RecordErrorByEndpoint("jobs", "POST", "client_error")
			}, ShouldNotPanic)
		})

		Convey("Then the registry gathers lineup metrics", func() {
			UpdateQueueCapacity(10)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(names, ShouldContain, "lineup_formulator_queue_capacity")
			So(Global(), ShouldNotBeNil)
		})
	})
}
