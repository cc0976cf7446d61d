// Package setup runs the interactive configuration wizard.
package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/volprofile/config"
	"github.com/vadiminshakov/volprofile/internal/domain"
	"github.com/vadiminshakov/volprofile/internal/services/market/indicators"
	"github.com/vadiminshakov/volprofile/internal/session"
	"gopkg.in/yaml.v3"
)

// OutputFile is where the wizard writes the generated configuration.
const OutputFile = "config.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// answers collects everything the wizard asks for.
type answers struct {
	mode       string
	source     string
	symbol     string
	interval   string
	periodDays string
	binning    string
	bins       string
	valueArea  string
	strategy   string
	maType     string
	maSource   string
	maPeriod   string
	maOffset   string
	listenAddr string
	username   string
	password   string
	sessionTTL string
	timeframes string
}

func defaultAnswers() answers {
	return answers{
		mode:       config.ModeServe,
		source:     "auto",
		symbol:     "EURUSD",
		interval:   "1h",
		periodDays: "10",
		binning:    config.BinningFixedCount,
		bins:       "59",
		valueArea:  "0.68",
		strategy:   "ranked_span",
		maType:     "none",
		maSource:   "close",
		maPeriod:   "20",
		maOffset:   "0",
		listenAddr: ":8080",
		username:   "admin",
		sessionTTL: "30m",
		timeframes: "1h,4h,1d",
	}
}

func step(title string) {
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("VOLUME PROFILE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(title))
}

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	a := defaultAnswers()
	var confirm bool

	// step 1: welcome
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("VOLUME PROFILE CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Where is the volume? Let's find out.\n"))

	fmt.Println(stepStyle.Render("STEP 1: MODE"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How will you run the service?").
				Options(
					huh.NewOption("Web dashboard", config.ModeServe),
					huh.NewOption("One-off terminal report", config.ModeReport),
				).
				Value(&a.mode),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 2: MARKET")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Market data source").
				Options(
					huh.NewOption("Auto (crypto to Binance, the rest to Yahoo)", "auto"),
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Hyperliquid", "hyperliquid"),
					huh.NewOption("Yahoo Finance", "yahoo"),
				).
				Value(&a.source),
			huh.NewInput().
				Title("Symbol").
				Description("e.g. BTCUSDT or EURUSD").
				Value(&a.symbol).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("symbol cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Interval").
				Options(intervalOptions()...).
				Value(&a.interval),
			huh.NewInput().
				Title("Days to analyze").
				Value(&a.periodDays).
				Validate(validatePositiveInt),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 3: PROFILE")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Binning").
				Options(
					huh.NewOption("Fixed bin count", config.BinningFixedCount),
					huh.NewOption("Fixed price step", config.BinningFixedStep),
				).
				Value(&a.binning),
			huh.NewInput().
				Title("Bins").
				Description("Bin count, or resolution for fixed step").
				Value(&a.bins).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Value area").
				Description("Share of volume inside the value area (0-1]").
				Value(&a.valueArea).
				Validate(validateValueArea),
			huh.NewSelect[string]().
				Title("Value area strategy").
				Options(
					huh.NewOption("Ranked bins (highest volume first)", "ranked_span"),
					huh.NewOption("Contiguous growth from POC", "contiguous"),
				).
				Value(&a.strategy),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 4: MOVING AVERAGE")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Overlay").
				Options(
					huh.NewOption("None", "none"),
					huh.NewOption("SMA", string(indicators.SMA)),
					huh.NewOption("EMA", string(indicators.EMA)),
					huh.NewOption("WMA", string(indicators.WMA)),
				).
				Value(&a.maType),
			huh.NewSelect[string]().
				Title("Apply to").
				Options(huh.NewOptions("close", "open", "high", "low")...).
				Value(&a.maSource),
			huh.NewInput().
				Title("Period").
				Description("1-100").
				Value(&a.maPeriod).
				Validate(validateRange(indicators.MinPeriod, indicators.MaxPeriod)),
			huh.NewInput().
				Title("Offset").
				Description("-50..50 bars").
				Value(&a.maOffset).
				Validate(validateRange(indicators.MinOffset, indicators.MaxOffset)),
		),
	).Run()
	if err != nil {
		return err
	}

	if a.mode == config.ModeServe {
		step("STEP 5: DASHBOARD")
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Listen address").
					Value(&a.listenAddr),
				huh.NewInput().
					Title("Admin user").
					Value(&a.username),
				huh.NewInput().
					Title("Admin password").
					Value(&a.password).
					EchoMode(huh.EchoModePassword).
					Validate(func(s string) error {
						if len(s) < 6 {
							return fmt.Errorf("password must have at least 6 characters")
						}
						return nil
					}),
				huh.NewInput().
					Title("Session lifetime").
					Description("Duration string (e.g. 30m, 2h)").
					Value(&a.sessionTTL).
					Validate(func(s string) error {
						_, err := time.ParseDuration(s)
						return err
					}),
			),
		).Run()
	} else {
		step("STEP 5: REPORT")
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Report timeframes").
					Description("Comma separated (e.g. 1h,4h,1d)").
					Value(&a.timeframes),
			),
		).Run()
	}
	if err != nil {
		return err
	}

	// confirmation
	step("FINAL CONFIRMATION")

	summary := fmt.Sprintf(
		"Mode: %s\nSource: %s\nSymbol: %s\nInterval: %s\nDays: %s\nBinning: %s (%s)\nValue area: %s\n",
		a.mode, a.source, a.symbol, a.interval, a.periodDays, a.binning, a.bins, a.valueArea,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	cfgTmp, err := a.toConfig()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	if err := os.WriteFile(OutputFile, data, 0600); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(
		fmt.Sprintf("\n✓ Configuration saved to %s\nRun: volprofile --config %s", OutputFile, OutputFile)))
	return nil
}

// toConfig converts wizard answers into the YAML config layout, hashing the admin password.
func (a answers) toConfig() (config.ConfigTmp, error) {
	cfgTmp := config.ConfigTmp{
		Source:            a.source,
		Symbol:            strings.ToUpper(strings.TrimSpace(a.symbol)),
		Interval:          a.interval,
		PeriodDaysStr:     a.periodDays,
		Binning:           a.binning,
		ValueArea:         a.valueArea,
		ValueAreaStrategy: a.strategy,
		Mode:              a.mode,
	}
	if a.binning == config.BinningFixedStep {
		cfgTmp.ResolutionStr = a.bins
	} else {
		cfgTmp.DynamicBinsStr = a.bins
	}

	if a.maType != "none" {
		period, _ := strconv.Atoi(a.maPeriod)
		offset, _ := strconv.Atoi(a.maOffset)
		cfgTmp.MovingAverage = &indicators.MovingAverage{
			Type:   indicators.Type(a.maType),
			Source: a.maSource,
			Period: period,
			Offset: offset,
		}
	}

	switch a.mode {
	case config.ModeServe:
		ttl, err := time.ParseDuration(a.sessionTTL)
		if err != nil {
			return config.ConfigTmp{}, fmt.Errorf("invalid session lifetime: %w", err)
		}
		hash, err := session.HashPassword(a.password)
		if err != nil {
			return config.ConfigTmp{}, err
		}
		cfgTmp.ListenAddr = a.listenAddr
		cfgTmp.SessionTTL = ttl
		cfgTmp.Users = map[string]string{a.username: hash}
	case config.ModeReport:
		for _, tf := range strings.Split(a.timeframes, ",") {
			if tf = strings.TrimSpace(tf); tf != "" {
				cfgTmp.ReportTimeframes = append(cfgTmp.ReportTimeframes, tf)
			}
		}
	}

	return cfgTmp, nil
}

func intervalOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(domain.Intervals()))
	for _, i := range domain.Intervals() {
		opts = append(opts, huh.NewOption(i.String(), i.String()))
	}
	return opts
}

func validatePositiveInt(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func validateRange(min, max int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil || v < min || v > max {
			return fmt.Errorf("must be an integer between %d and %d", min, max)
		}
		return nil
	}
}

func validateValueArea(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() || d.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("must be in (0, 1]")
	}
	return nil
}
