// Package delivery dispatches assembled newsletters over the configured
// outbound channels using shoutrrr service URLs.
package delivery

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/ecosante/ecosante-go/internal/conf"
	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/ecosante/ecosante-go/internal/errors"
	"github.com/ecosante/ecosante-go/internal/logging"
	"github.com/ecosante/ecosante-go/internal/newsletter"
	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
)

var deliveryLogger *slog.Logger

func init() {
	var err error
	deliveryLogger, _, err = logging.NewFileLogger("logs/delivery.log", "delivery", slog.LevelInfo)
	if err != nil || deliveryLogger == nil {
		deliveryLogger = slog.Default().With("service", "delivery")
	}
}

// Dispatcher routes newsletters to a per-channel shoutrrr sender.
type Dispatcher struct {
	senders map[string]*router.ServiceRouter
	dryRun  bool
	enabled bool
	log     *slog.Logger
}

// NewDispatcher builds the per-channel senders from settings. URLs are
// validated eagerly so a misconfigured channel fails at startup, not
// mid-batch.
func NewDispatcher(settings *conf.Settings) (*Dispatcher, error) {
	d := &Dispatcher{
		senders: make(map[string]*router.ServiceRouter),
		dryRun:  settings.Delivery.DryRun,
		enabled: settings.Delivery.Enabled,
		log:     deliveryLogger,
	}

	if !d.enabled || d.dryRun {
		return d, nil
	}

	channelURLs := map[string][]string{
		datastore.ChannelMail: settings.Delivery.MailURLs,
		datastore.ChannelSMS:  settings.Delivery.SMSURLs,
	}
	for channel, urls := range channelURLs {
		if len(urls) == 0 {
			continue
		}
		sender, err := shoutrrr.CreateSender(urls...)
		if err != nil {
			return nil, errors.New(err).
				Component("delivery").
				Category(errors.CategoryConfiguration).
				Context("channel", channel).
				Build()
		}
		if settings.Delivery.Timeout > 0 {
			sender.Timeout = settings.Delivery.Timeout
		}
		sender.SetLogger(log.New(io.Discard, "", 0))
		d.senders[channel] = sender
	}

	return d, nil
}

// Dispatch renders the newsletter and sends it over the profile's channel.
func (d *Dispatcher) Dispatch(ctx context.Context, n *newsletter.Newsletter) error {
	if !d.enabled {
		return nil
	}

	body, err := Render(n)
	if err != nil {
		return errors.New(err).
			Component("delivery").
			Category(errors.CategoryDelivery).
			ProfileContext(n.Profile.ID, n.Profile.CityInsee).
			Build()
	}

	if d.dryRun {
		d.log.Info("Dry run, not sending",
			"profile_id", n.Profile.ID,
			"channel", n.Profile.Channel,
			"short_id", n.ShortID,
		)
		return nil
	}

	sender, ok := d.senders[n.Profile.Channel]
	if !ok {
		return errors.Newf("no sender configured for channel %s", n.Profile.Channel).
			Component("delivery").
			Category(errors.CategoryConfiguration).
			Build()
	}

	_ = ctx // the router handles its own timeouts

	started := time.Now()
	params := stypes.Params{}
	params.SetTitle(fmt.Sprintf("Vos recommandations air et santé du %s", n.Date.Format("02/01/2006")))

	errs := sender.Send(body, &params)
	for _, sendErr := range errs {
		if sendErr != nil {
			return errors.New(sendErr).
				Component("delivery").
				Category(errors.CategoryDelivery).
				ProfileContext(n.Profile.ID, n.Profile.CityInsee).
				Timing("send", time.Since(started)).
				Build()
		}
	}

	d.log.Debug("Dispatched newsletter",
		"profile_id", n.Profile.ID,
		"channel", n.Profile.Channel,
		"short_id", n.ShortID,
		"duration", time.Since(started).String(),
	)
	return nil
}
