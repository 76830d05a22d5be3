package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/okian/wellcheck/internal/adapters/classifier/tree"
	"github.com/okian/wellcheck/internal/adapters/notify/telegram"
	"github.com/okian/wellcheck/internal/adapters/secrets"
	service "github.com/okian/wellcheck/internal/app"
	"github.com/okian/wellcheck/internal/domain/decision"
	"github.com/okian/wellcheck/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const fixturePath = "../adapters/classifier/tree/testdata/stress_tree.yaml"

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service wired to the fixture tree and a fake bot endpoint", t, func() {
		var sent int32
		var lastText string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&sent, 1)
			_ = r.ParseForm()
			lastText = r.FormValue("text")
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`))
		}))
		defer srv.Close()

		model, err := tree.Load(fixturePath)
		So(err, ShouldBeNil)

		engine, err := decision.New(decision.WithClassifier(model), decision.WithLogger(logger.Get()))
		So(err, ShouldBeNil)

		store := secrets.Static{
			secrets.KeyTelegramBotToken: "42:token",
			secrets.KeyTelegramChatID:   "1001",
		}
		notifier := telegram.New(telegram.WithSecrets(store), telegram.WithEndpoint(srv.URL+"/bot%s/%s"))

		svc, err := service.New(
			service.WithEngine(engine),
			service.WithNotifier(notifier),
			service.WithModelInfo(model.Describe()),
			service.WithLogger(logger.Get()),
		)
		So(err, ShouldBeNil)

		ctx := context.Background()

		Convey("When the reference submission is assessed", func() {
			out := svc.Assess(ctx, referenceRaw())

			Convey("Then it is Low and no alert is sent", func() {
				So(out.Verdict.Severity, ShouldEqual, decision.SeverityLow)
				So(atomic.LoadInt32(&sent), ShouldEqual, 0)
			})
		})

		Convey("When stress is constant and grades are low", func() {
			raw := referenceRaw()
			raw.Stress = "Always"
			raw.CGPA = 4.8
			out := svc.Assess(ctx, raw)

			Convey("Then it is High and one alert carries the reference", func() {
				So(out.Verdict.Severity, ShouldEqual, decision.SeverityHigh)
				So(out.Notification.Delivered, ShouldBeTrue)
				So(atomic.LoadInt32(&sent), ShouldEqual, 1)
				So(lastText, ShouldContainSubstring, out.Ref)
				So(lastText, ShouldContainSubstring, "Always (3)")
			})
		})

		Convey("When stress is constant and grades are fine", func() {
			raw := referenceRaw()
			raw.Stress = "Frequently"
			out := svc.Assess(ctx, raw)

			Convey("Then the tie breaks toward Medium", func() {
				So(out.Verdict.Severity, ShouldEqual, decision.SeverityMedium)
				So(atomic.LoadInt32(&sent), ShouldEqual, 0)
			})
		})

		Convey("When the text contains crisis language", func() {
			raw := referenceRaw()
			raw.FreeText = "Sometimes I think everyone is BETTER OFF DEAD without me"
			out := svc.Assess(ctx, raw)

			Convey("Then the override alert is sent", func() {
				So(out.Verdict.Severity, ShouldEqual, decision.SeverityCriticalOverride)
				So(out.Verdict.Keyword, ShouldEqual, "better off dead")
				So(out.Notification.Delivered, ShouldBeTrue)
				So(lastText, ShouldContainSubstring, "crisis language")
			})
		})

		Convey("Then stats describe the loaded tree", func() {
			stats := svc.GetStats()
			So(stats["modelBackend"], ShouldEqual, "tree")
			So(stats["alertsEnabled"], ShouldEqual, true)
		})
	})
}
