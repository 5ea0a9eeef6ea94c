package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acdtunes/fleetctl/internal/adapters/api"
	"github.com/acdtunes/fleetctl/internal/adapters/persistence"
	"github.com/acdtunes/fleetctl/internal/bus"
	"github.com/acdtunes/fleetctl/internal/control"
	"github.com/acdtunes/fleetctl/internal/domain/ports"
	"github.com/acdtunes/fleetctl/internal/domain/shared"
	"github.com/acdtunes/fleetctl/internal/infrastructure/config"
	"github.com/acdtunes/fleetctl/internal/infrastructure/database"
	"github.com/acdtunes/fleetctl/internal/infrastructure/pidfile"
	"github.com/acdtunes/fleetctl/internal/manager/chartmanager"
	"github.com/acdtunes/fleetctl/internal/manager/constructionmanager"
	"github.com/acdtunes/fleetctl/internal/manager/contractmanager"
	"github.com/acdtunes/fleetctl/internal/manager/fleetmanager"
	"github.com/acdtunes/fleetctl/internal/manager/miningmanager"
	"github.com/acdtunes/fleetctl/internal/manager/scrapmanager"
	"github.com/acdtunes/fleetctl/internal/manager/trademanager"
	"github.com/acdtunes/fleetctl/internal/marketcache"
	"github.com/acdtunes/fleetctl/internal/navigation"
	"github.com/acdtunes/fleetctl/internal/pilot"
	"github.com/acdtunes/fleetctl/internal/shipactor"
	"github.com/acdtunes/fleetctl/internal/shipmanager"
)

func main() {
	configPath := flag.String("config", "", "ambient config file (database/api/logging); empty searches default paths")
	fleetConfigPath := flag.String("fleet-config", "fleet.json", "spec.md §6 fleet JSON config path")
	flag.Parse()

	cfg := config.MustLoadConfig(*configPath)

	fleetCfg, err := config.LoadFleetConfig(*fleetConfigPath)
	if err != nil {
		log.Fatalf("failed to load fleet config: %v", err)
	}

	pf := pidfile.New(cfg.Daemon.PIDFile)
	if err := pf.Acquire(); err != nil {
		log.Fatalf("failed to acquire PID file lock: %v", err)
	}
	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("warning: failed to release PID file: %v", err)
		}
	}()

	if err := run(cfg, fleetCfg); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run(cfg *config.Config, fleetCfg *config.FleetConfig) error {
	clock := shared.NewRealClock()

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	store := persistence.NewStore(db)
	var portsStore ports.Store = store

	token := os.Getenv("SPACETRADERS_TOKEN")
	apiClient := api.New(cfg.API, token, clock)
	var client ports.APIClient = apiClient

	planner := navigation.NewPlanner()
	if err := loadGraphs(context.Background(), portsStore, planner); err != nil {
		return err
	}

	shipManager := shipmanager.New(clock)
	shipBus := bus.New(bus.DefaultCapacity)
	markets := marketcache.New()

	trade := trademanager.New(markets, planner)
	contractMgr := contractmanager.New(fleetCfg.Contracts.MaxContracts, markets)
	construction := constructionmanager.New(markets)
	mining := miningmanager.New(planner, fleetCfg.Mining.MaxMinersPerWaypoint)
	scrapInterval := time.Duration(fleetCfg.Market.ScrapIntervalMS) * time.Millisecond
	if scrapInterval <= 0 {
		scrapInterval = time.Hour
	}
	scrap := scrapmanager.New(clock, scrapInterval, planner).WithMaxScrapFailures(fleetCfg.Market.MaxScrapFailures)
	chart := chartmanager.New(planner)
	fleet := fleetmanager.New()

	seedScrapSchedule(planner, scrap)

	managerCtx, managerCancel := context.WithCancel(context.Background())
	defer managerCancel()
	pilotCtx, pilotCancel := context.WithCancel(managerCtx)

	tradeMessenger := trademanager.NewMessenger(trade)
	contractMessenger := contractmanager.NewMessenger(contractMgr)
	constructionMessenger := constructionmanager.NewMessenger(construction)
	miningMessenger := miningmanager.NewMessenger(mining)
	scrapMessenger := scrapmanager.NewMessenger(scrap)
	chartMessenger := chartmanager.NewMessenger(chart)
	fleetMessenger := fleetmanager.NewMessenger(fleet)

	// Only managers with a real, already-tracked ship-need signal report
	// into procurement (§4.10); see DESIGN.md for why trademanager and
	// contractmanager are left unwired. Must run before fleet.Run starts
	// so m.providers is never mutated concurrently with the actor
	// goroutine reading it.
	fleet.RegisterProvider("mining", miningMessenger)
	fleet.RegisterProvider("scrap", scrapMessenger)
	fleet.RegisterProvider("chart", chartMessenger)
	fleet.RegisterProvider("construction", constructionMessenger)

	go trade.Run(managerCtx)
	go contractMgr.Run(managerCtx)
	go construction.Run(managerCtx)
	go mining.Run(managerCtx)
	go scrap.Run(managerCtx)
	go chart.Run(managerCtx)
	go fleet.Run(managerCtx)

	blacklist := make(map[string]bool, len(fleetCfg.Trading.Blacklist))
	for _, sym := range fleetCfg.Trading.Blacklist {
		blacklist[sym] = true
	}

	deps := &pilot.Dependencies{
		ShipManager:    shipManager,
		Trade:          tradeMessenger,
		Contract:       contractMessenger,
		Mining:         miningMessenger,
		Scrap:          scrapMessenger,
		Chart:          chartMessenger,
		Construction:   constructionMessenger,
		Fleet:          fleetMessenger,
		Markets:        markets,
		TradeBlacklist: blacklist,
		MaxTransferJumpRetries: fleetCfg.MaxTransferJumpRetries,
	}

	roleRows, err := shipRoleRowMap(context.Background(), portsStore)
	if err != nil {
		return err
	}

	ships, err := client.ListShips(context.Background())
	if err != nil {
		return err
	}

	taskHandler := pilot.NewTaskHandler(pilotCancel)
	for _, data := range ships {
		role := loadPersistedRole(roleRows, data.Symbol)
		s, err := buildShip(data, role)
		if err != nil {
			log.Printf("fleetd: skipping ship %s: %v", data.Symbol, err)
			continue
		}
		shipManager.AddShip(s)

		actor := shipactor.New(s.Symbol(), shipManager, client, planner, shipBus, clock)
		go actor.Run(managerCtx)

		loop := pilot.NewLoop(s.Symbol(), actor, deps)
		taskHandler.Spawn(pilotCtx, loop)
	}

	var controlServer *control.Server
	if fleetCfg.ControlServer.Active {
		controlServer = control.NewServer(shipManager, tradeMessenger, contractMessenger, constructionMessenger, planner)
		go control.ForwardShipSnapshots(managerCtx, shipManager, controlServer.Hub)
		go func() {
			if err := controlServer.ListenAndServe(managerCtx, fleetCfg.ControlServer.SocketAddress); err != nil {
				log.Printf("fleetd: control server stopped: %v", err)
			}
		}()
	}

	log.Printf("fleetd: %d ships under pilot for agent %s", shipManager.Count(), fleetCfg.Symbol)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("fleetd: shutdown signal received, draining pilot loops")
	taskHandler.Shutdown()
	managerCancel()
	log.Println("fleetd: stopped")
	return nil
}

// seedScrapSchedule installs every marketplace/shipyard waypoint the
// planner already knows about into the scrapping manager's due-time
// table (§4.5), so the first cycle has candidates instead of starting
// fully cold.
func seedScrapSchedule(planner *navigation.Planner, scrap *scrapmanager.Manager) {
	for _, system := range planner.SystemSymbols() {
		sys := system
		waypoints := planner.WaypointsInSystem(sys)
		scrap.Seed(sys, waypoints,
			func(wp string) bool { return planner.IsMarketplace(sys, wp) },
			func(wp string) bool { return planner.IsShipyard(sys, wp) },
		)
	}
}
