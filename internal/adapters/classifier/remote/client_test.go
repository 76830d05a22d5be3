package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/wellcheck/internal/domain/classifier"
	"github.com/okian/wellcheck/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func sampleRow() model.FeatureRow {
	return model.FeatureRow{Values: [model.FeatureCount]float64{20, 1, 0, 0, 2, 7.5, 1, 1, 1}}
}

func TestClientPredict(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a sidecar that predicts class 2", t, func() {
		var got PredictRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/predict" || r.Method != http.MethodPost {
				http.NotFound(w, r)
				return
			}
			_ = json.NewDecoder(r.Body).Decode(&got)
			_ = json.NewEncoder(w).Encode(PredictResponse{Predictions: []int{2}, Classes: []int{0, 1, 2}})
		}))
		defer srv.Close()

		class, err := NewClient(srv.URL+"/").Predict(ctx, sampleRow())

		convey.Convey("Then the labeled row is sent and the class returned", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(class, convey.ShouldEqual, 2)
			convey.So(got.FeatureNames, convey.ShouldResemble, model.FeatureNames())
			convey.So(got.Rows, convey.ShouldResemble, [][]float64{{20, 1, 0, 0, 2, 7.5, 1, 1, 1}})
		})
	})

	convey.Convey("Given sidecar failures", t, func() {
		cases := []struct {
			name   string
			status int
			body   string
			kind   error
		}{
			{"schema rejection", http.StatusUnprocessableEntity, `{"detail":"feature names mismatch"}`, classifier.ErrShapeMismatch},
			{"bad request", http.StatusBadRequest, `bad`, classifier.ErrShapeMismatch},
			{"server error", http.StatusInternalServerError, `model not loaded`, classifier.ErrUnavailable},
			{"unexpected classes", http.StatusOK, `{"predictions":[1],"classes":[0,1]}`, classifier.ErrUnexpectedClass},
		}
		for _, c := range cases {
			convey.Convey("When the sidecar answers with a "+c.name, func() {
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(c.status)
					_, _ = w.Write([]byte(c.body))
				}))
				defer srv.Close()

				_, err := NewClient(srv.URL).Predict(ctx, sampleRow())
				convey.So(errors.Is(err, c.kind), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given a sidecar that is down", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewClient(url).Predict(ctx, sampleRow())

		convey.Convey("Then the classifier is unavailable", func() {
			convey.So(errors.Is(err, classifier.ErrUnavailable), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a slow sidecar", t, func() {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		_, err := NewClient(srv.URL, WithTimeout(50*time.Millisecond)).Predict(ctx, sampleRow())

		convey.Convey("Then the timeout surfaces as unavailable", func() {
			convey.So(errors.Is(err, classifier.ErrUnavailable), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a sidecar with a health endpoint", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		convey.So(NewClient(srv.URL).Ping(ctx), convey.ShouldBeNil)
		convey.So(NewClient(srv.URL).Describe().Backend, convey.ShouldEqual, "remote")
	})
}
