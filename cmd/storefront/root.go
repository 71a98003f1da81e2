package main

import (
	"context"
	"os"

	"github.com/angelmondragon/qkart/internal/account"
	"github.com/angelmondragon/qkart/internal/cart"
	"github.com/angelmondragon/qkart/internal/session"
	"github.com/angelmondragon/qkart/internal/storefront"
	"github.com/angelmondragon/qkart/pkg/apiclient"
	"github.com/angelmondragon/qkart/pkg/config"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/logger"
	"github.com/angelmondragon/qkart/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type app struct {
	logg     *logger.Logger
	registry *prometheus.Registry
	client   *apiclient.Client
	sessions *session.Store
	sess     *session.Session
	accounts *account.Service
	front    *storefront.Service
}

type rootFlags struct {
	apiURL      string
	sessionFile string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the QKart catalog and manage your cart",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bootstrap(flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.reportMetrics()
		},
	}
	root.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "QKart API base URL (or set STOREFRONT_API_URL)")
	root.PersistentFlags().StringVar(&flags.sessionFile, "session-file", "", "Session file path (or set STOREFRONT_SESSION_FILE)")

	root.AddCommand(newRegisterCmd(a))
	root.AddCommand(newLoginCmd(a))
	root.AddCommand(newLogoutCmd(a))
	root.AddCommand(newWhoamiCmd(a))
	root.AddCommand(newProductsCmd(a))
	root.AddCommand(newCartCmd(a))
	root.AddCommand(newCheckoutSummaryCmd(a))
	return root
}

func (a *app) bootstrap(flags *rootFlags) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
	}
	if flags.sessionFile != "" {
		cfg.SessionFile = flags.sessionFile
	}

	a.logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Output:      os.Stderr,
		Format:      "console",
	})

	a.registry = prometheus.NewRegistry()

	a.client, err = apiclient.NewClient(cfg.APIURL, apiclient.WithTimeout(cfg.HTTPTimeout))
	if err != nil {
		return err
	}
	a.sessions, err = session.NewStore(cfg.SessionFile)
	if err != nil {
		return err
	}
	a.sess, err = a.sessions.Load()
	if err != nil {
		a.logg.Warn(a.logg.WithField(context.Background(), "reason", err.Error()), "session.load.failed")
		a.sess = nil
	}

	a.accounts, err = account.NewService(a.client, a.sessions, a.logg)
	if err != nil {
		return err
	}

	mutator, err := cart.NewMutator(a.client,
		cart.WithLogger(a.logg),
		cart.WithMetrics(metrics.NewCartMetrics(a.registry)),
	)
	if err != nil {
		return err
	}
	a.front, err = storefront.NewService(a.client, mutator, a.logg)
	return err
}

// reportMetrics logs the command's cart counters at debug level.
func (a *app) reportMetrics() {
	if a.registry == nil {
		return
	}
	fields := metricFields(a.registry)
	if len(fields) == 0 {
		return
	}
	a.logg.Debug(a.logg.WithFields(context.Background(), fields), "storefront.metrics")
}

// metricFields flattens gathered counters and histogram counts into log
// fields keyed by metric name and label values.
func metricFields(reg prometheus.Gatherer) map[string]any {
	if reg == nil {
		return nil
	}
	families, err := reg.Gather()
	if err != nil {
		return nil
	}
	fields := map[string]any{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "." + lp.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				fields[key] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				fields[key+".count"] = m.GetHistogram().GetSampleCount()
			}
		}
	}
	return fields
}

// requireSession returns the stored session or the login prompt.
func (a *app) requireSession() (*session.Session, error) {
	if !a.sess.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, cart.MsgLoginRequired)
	}
	return a.sess, nil
}
