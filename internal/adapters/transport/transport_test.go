package transport_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/okian/talentflow/internal/adapters/transport"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRouter(t *testing.T) {
	ctx := context.Background()

	Convey("Given a router with an email route and no fallback", t, func() {
		var got []transport.Message
		r := transport.NewRouter(nil)
		r.Handle(model.ChannelEmail, transport.Func(func(_ context.Context, m transport.Message) error {
			got = append(got, m)
			return nil
		}))

		Convey("When sending by email", func() {
			err := r.Send(ctx, transport.Message{Channel: model.ChannelEmail, Address: "a@b.c"})

			Convey("Then the route should receive it", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
			})
		})

		Convey("When sending over an unrouted channel", func() {
			err := r.Send(ctx, transport.Message{Channel: model.ChannelSMS})

			Convey("Then it should fail as a transport error", func() {
				So(errors.Is(err, transport.ErrTransport), ShouldBeTrue)
				So(errors.Is(err, transport.ErrNoRoute), ShouldBeTrue)
			})
		})

		Convey("When the route fails", func() {
			boom := errors.New("smtp down")
			r.Handle(model.ChannelEmail, transport.Func(func(context.Context, transport.Message) error { return boom }))
			err := r.Send(ctx, transport.Message{Channel: model.ChannelEmail})

			Convey("Then the cause should be preserved", func() {
				var te *transport.Error
				So(errors.As(err, &te), ShouldBeTrue)
				So(te.Channel, ShouldEqual, model.ChannelEmail)
				So(errors.Is(err, boom), ShouldBeTrue)
				So(errors.Is(err, transport.ErrTransport), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := r.Send(cctx, transport.Message{Channel: model.ChannelEmail})

			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(got, ShouldBeEmpty)
		})
	})
}

func TestLogTransport(t *testing.T) {
	var buf bytes.Buffer
	_ = logger.Init(logger.WithWriter(&buf))

	Convey("Given a log transport", t, func() {
		lt := transport.NewLogTransport(logger.Named("transport"))

		Convey("Then messages with an address should be logged", func() {
			err := lt.Send(context.Background(), transport.Message{EventID: "e1", Channel: model.ChannelEmail, Address: "a@b.c", Subject: "hi"})
			So(err, ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "outreach delivered")
		})

		Convey("Then messages without an address should fail", func() {
			err := lt.Send(context.Background(), transport.Message{Channel: model.ChannelWhatsApp, TalentID: "t1"})
			So(errors.Is(err, transport.ErrNoAddress), ShouldBeTrue)
		})
	})
}
