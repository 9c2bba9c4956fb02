package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/adapters/repository/repotest"
	"github.com/okian/talentflow/internal/adapters/transport"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/outreach"
	"github.com/okian/talentflow/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

type staticStats map[string]any

func (s staticStats) GetStats() map[string]any { return s }

func newTestMux() (*http.ServeMux, *repository.MemoryStore) {
	revoked := repotest.Talent("t-revoked")
	revoked.ConsentStatus = model.ConsentRevoked
	store := repository.NewMemoryStore(
		repository.WithTalents(repotest.Talent("t1"), repotest.Talent("t2"), repotest.Talent("t-down"), revoked),
		repository.WithCampaigns(repotest.Campaign("c1")),
		repository.WithEnrollments(model.Enrollment{CampaignID: "c1", TalentID: "t1", EnrolledAt: repotest.Base}),
		repository.WithTemplates(model.MessageTemplate{
			ID:              "tpl-1",
			Channel:         model.ChannelEmail,
			Subject:         "Oi {{preferredName}}",
			Body:            "Vaga de {{sapModule}}",
			ExperienceLevel: model.LevelAll,
			Category:        model.CategoryInitialOutreach,
		}),
	)
	tr := transport.Func(func(_ context.Context, msg transport.Message) error {
		if msg.TalentID == "t-down" {
			return errors.New("smtp unavailable")
		}
		return nil
	})
	engine := outreach.New(store, transport.NewRouter(tr))
	mux := http.NewServeMux()
	NewServer(engine, staticStats{"queue_size": 0}).Register(context.Background(), mux)
	return mux, store
}

func call(mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestOutreachRoutes(t *testing.T) {
	Convey("Given the API on an in-memory store", t, func() {
		mux, store := newTestMux()

		Convey("When a message is generated", func() {
			w := call(mux, http.MethodPost, "/outreach/generate", map[string]any{"talentId": "t1", "tone": "casual"})

			Convey("Then the preview is returned and nothing is recorded", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				out := decodeBody(w)
				So(out["subject"], ShouldEqual, "Oi Talent")
				So(out["lgpdCompliant"], ShouldEqual, true)
				h, err := store.History(context.Background(), "t1")
				So(err, ShouldBeNil)
				So(h, ShouldBeEmpty)
			})
		})

		Convey("When generate names an unknown tone", func() {
			w := call(mux, http.MethodPost, "/outreach/generate", map[string]any{"talentId": "t1", "tone": "sarcastic"})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When generate has a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/outreach/generate", bytes.NewBufferString("{"))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeBody(w)["code"], ShouldEqual, "invalid_request")
		})

		Convey("When a message is sent", func() {
			w := call(mux, http.MethodPost, "/outreach/send", map[string]any{"talentId": "t1", "campaignId": "c1"})
			So(w.Code, ShouldEqual, http.StatusCreated)
			ev := decodeBody(w)

			Convey("Then it appears in the history", func() {
				h := call(mux, http.MethodGet, "/outreach/history/t1", nil)
				So(h.Code, ShouldEqual, http.StatusOK)
				var list []map[string]any
				So(json.Unmarshal(h.Body.Bytes(), &list), ShouldBeNil)
				So(list, ShouldHaveLength, 1)
				So(list[0]["id"], ShouldEqual, ev["id"])
				So(list[0]["status"], ShouldEqual, "sent")
			})

			Convey("And its status can move forward but not back", func() {
				path := "/outreach/events/" + ev["id"].(string) + "/status"
				ok := call(mux, http.MethodPost, path, map[string]any{"status": "opened", "at": "2026-04-02T10:00:00Z"})
				So(ok.Code, ShouldEqual, http.StatusOK)
				out := decodeBody(ok)
				So(out["status"], ShouldEqual, "opened")
				So(out["deliveredAt"], ShouldEqual, "2026-04-02T10:00:00Z")

				back := call(mux, http.MethodPost, path, map[string]any{"status": "delivered"})
				So(back.Code, ShouldEqual, http.StatusBadRequest)

				c, err := store.GetCampaign(context.Background(), "c1")
				So(err, ShouldBeNil)
				So(c.Counters.Opened, ShouldEqual, int64(1))
			})
		})

		Convey("When the talent revoked consent", func() {
			w := call(mux, http.MethodPost, "/outreach/send", map[string]any{"talentId": "t-revoked"})

			Convey("Then the send is refused with the reason", func() {
				So(w.Code, ShouldEqual, http.StatusForbidden)
				out := decodeBody(w)
				So(out["code"], ShouldEqual, "consent_denied")
				So(out["reason"], ShouldNotBeEmpty)
			})
		})

		Convey("When the transport fails", func() {
			w := call(mux, http.MethodPost, "/outreach/send", map[string]any{"talentId": "t-down"})

			Convey("Then the failed event is returned as a gateway error", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(decodeBody(w)["status"], ShouldEqual, "failed")
			})
		})

		Convey("When the talent does not exist", func() {
			w := call(mux, http.MethodPost, "/outreach/send", map[string]any{"talentId": "ghost"})
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When a bulk send mixes good, missing and refused talents", func() {
			w := call(mux, http.MethodPost, "/outreach/bulk-send", map[string]any{
				"talentIds":  []string{"t1", "t2", "ghost", "t-revoked", "t1"},
				"campaignId": "c1",
			})

			Convey("Then the counts add up to the total", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				out := decodeBody(w)
				So(out["total"], ShouldEqual, 5.0)
				So(out["sent"], ShouldEqual, 2.0)
				So(out["skipped"], ShouldEqual, 3.0)
				So(out["failed"], ShouldEqual, 0.0)
				So(out["results"], ShouldHaveLength, 5)
			})
		})

		Convey("When a bulk send targets a paused campaign", func() {
			c, err := store.GetCampaign(context.Background(), "c1")
			So(err, ShouldBeNil)
			c.Status = model.CampaignPaused
			So(store.SaveCampaign(context.Background(), c), ShouldBeNil)

			w := call(mux, http.MethodPost, "/outreach/bulk-send", map[string]any{"campaignId": "c1", "talentIds": []string{"t1"}})
			So(w.Code, ShouldEqual, http.StatusConflict)
			h, _ := store.History(context.Background(), "t1")
			So(h, ShouldBeEmpty)
		})

		Convey("When a bulk send is empty", func() {
			w := call(mux, http.MethodPost, "/outreach/bulk-send", map[string]any{"talentIds": []string{}})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestTalentRoutes(t *testing.T) {
	Convey("Given the API on an in-memory store", t, func() {
		mux, _ := newTestMux()

		Convey("When a talent moves to a known stage", func() {
			w := call(mux, http.MethodPost, "/talents/t1/stage", map[string]any{"stage": "engaged"})
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(w)["funnelStage"], ShouldEqual, "engaged")
		})

		Convey("When the stage is unknown", func() {
			w := call(mux, http.MethodPost, "/talents/t1/stage", map[string]any{"stage": "hired-yesterday"})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When consent is revoked and granted again", func() {
			revoke := call(mux, http.MethodPost, "/consent/t2/revoke", map[string]any{"details": "email request"})
			So(revoke.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(revoke)["consentStatus"], ShouldEqual, "revoked")

			denied := call(mux, http.MethodPost, "/outreach/send", map[string]any{"talentId": "t2"})
			So(denied.Code, ShouldEqual, http.StatusForbidden)

			grant := call(mux, http.MethodPost, "/consent/t2/grant", nil)
			So(grant.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(grant)["consentStatus"], ShouldEqual, "granted")

			sent := call(mux, http.MethodPost, "/outreach/send", map[string]any{"talentId": "t2"})
			So(sent.Code, ShouldEqual, http.StatusCreated)
		})

		Convey("When a subject access report is requested after a send and a revocation", func() {
			So(call(mux, http.MethodPost, "/outreach/send", map[string]any{"talentId": "t1", "body": "Oi"}).Code, ShouldEqual, http.StatusCreated)
			So(call(mux, http.MethodPost, "/consent/t1/revoke", map[string]any{"details": "email request"}).Code, ShouldEqual, http.StatusOK)

			w := call(mux, http.MethodGet, "/consent/t1/dsar", nil)

			Convey("Then the record comes back with every trail", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				out := decodeBody(w)
				So(out["talentId"], ShouldEqual, "t1")
				So(out["processingDetails"].(map[string]any)["consentStatus"], ShouldEqual, "revoked")
				So(out["communicationHistory"], ShouldHaveLength, 1)
				So(out["activityLog"], ShouldHaveLength, 1)
				consents := out["consentHistory"].([]any)
				So(consents, ShouldHaveLength, 1)
				So(consents[0].(map[string]any)["action"], ShouldEqual, "revoke")
			})
		})

		Convey("When a subject access report names an unknown talent", func() {
			w := call(mux, http.MethodGet, "/consent/ghost/dsar", nil)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When consent changes for an unknown talent", func() {
			w := call(mux, http.MethodPost, "/consent/ghost/grant", nil)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestCampaignAndOpsRoutes(t *testing.T) {
	Convey("Given the API on an in-memory store", t, func() {
		mux, _ := newTestMux()

		Convey("When the next step of an enrolled talent is queried", func() {
			w := call(mux, http.MethodGet, "/campaigns/c1/talents/t1/next", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			out := decodeBody(w)
			So(out["kind"], ShouldEqual, "ready")
			So(out["step"].(map[string]any)["order"], ShouldEqual, 1.0)
		})

		Convey("When the campaign is unknown", func() {
			w := call(mux, http.MethodGet, "/campaigns/nope/talents/t1/next", nil)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When stats are requested", func() {
			w := call(mux, http.MethodGet, "/stats", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(w), ShouldContainKey, "queue_size")
		})

		Convey("When the health endpoint is scraped", func() {
			w := call(mux, http.MethodGet, "/healthz", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When a route is called with the wrong method", func() {
			w := call(mux, http.MethodGet, "/outreach/send", nil)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestErrorType(t *testing.T) {
	Convey("Error statuses map to metric labels", t, func() {
		So(getErrorType(http.StatusBadGateway), ShouldEqual, "transport")
		So(getErrorType(http.StatusInternalServerError), ShouldEqual, "server_error")
		So(getErrorType(http.StatusForbidden), ShouldEqual, "consent_denied")
		So(getErrorType(http.StatusNotFound), ShouldEqual, "not_found")
		So(getErrorType(http.StatusConflict), ShouldEqual, "conflict")
		So(getErrorType(http.StatusBadRequest), ShouldEqual, "client_error")
		So(getErrorType(http.StatusOK), ShouldEqual, "unknown")
	})
}

func TestMiddlewareSpans(t *testing.T) {
	Convey("Given a tracer provider recording spans", t, func() {
		rec := tracetest.NewSpanRecorder()
		otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}, "ping")

		Convey("When a request fails upstream", func() {
			h(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/ping", http.NoBody))

			Convey("Then a server span carries the status", func() {
				spans := rec.Ended()
				So(spans, ShouldHaveLength, 1)
				So(spans[0].Name(), ShouldEqual, "http.ping")
				So(spans[0].Status().Code, ShouldEqual, codes.Error)
			})
		})
	})
}
