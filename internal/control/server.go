package control

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/acdtunes/fleetctl/internal/manager/constructionmanager"
	"github.com/acdtunes/fleetctl/internal/manager/contractmanager"
	"github.com/acdtunes/fleetctl/internal/manager/trademanager"
	"github.com/acdtunes/fleetctl/internal/navigation"
	"github.com/acdtunes/fleetctl/internal/shipmanager"
)

// Server is the read-only HTTP/WebSocket inspection surface named in
// spec.md §6. It holds no mutation path into the fleet core: every
// handler reads a snapshot or queries a manager's messenger, never
// calls into shipactor or a manager's mutating messages.
type Server struct {
	Hub *Hub

	ships    *shipmanager.Manager
	trade    *trademanager.Messenger
	contract *contractmanager.Messenger
	build    *constructionmanager.Messenger
	planner  *navigation.Planner

	mux *http.ServeMux
}

func NewServer(ships *shipmanager.Manager, trade *trademanager.Messenger, contract *contractmanager.Messenger, build *constructionmanager.Messenger, planner *navigation.Planner) *Server {
	s := &Server{
		Hub:      NewHub(),
		ships:    ships,
		trade:    trade,
		contract: contract,
		build:    build,
		planner:  planner,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/ws", s.Hub.ServeWS)
	s.mux.HandleFunc("/api/ships", s.handleShips)
	s.mux.HandleFunc("/api/ships/", s.handleShip)
	s.mux.HandleFunc("/api/trade-routes", s.handleTradeRoutes)
	s.mux.HandleFunc("/api/contracts/shipments", s.handleContractShipments)
	s.mux.HandleFunc("/api/construction/shipments", s.handleConstructionShipments)
	s.mux.HandleFunc("/api/waypoints/", s.handleWaypoints)
	s.mux.HandleFunc("/api/stats", s.handleStats)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// ListenAndServe starts the HTTP server, honoring ctx cancellation by
// shutting down gracefully (§5 "cancellation-aware" suspension points).
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	go s.Hub.Run()

	srv := &http.Server{Addr: addr, Handler: s}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleShips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.ships.GetAllClone())
}

func (s *Server) handleShip(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Path[len("/api/ships/"):]
	if symbol == "" {
		http.NotFound(w, r)
		return
	}
	snap, ok := s.ships.GetClone(symbol)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleTradeRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := s.trade.GetAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, routes)
}

func (s *Server) handleContractShipments(w http.ResponseWriter, r *http.Request) {
	shipments, err := s.contract.GetAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, shipments)
}

func (s *Server) handleConstructionShipments(w http.ResponseWriter, r *http.Request) {
	shipments, err := s.build.GetAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, shipments)
}

func (s *Server) handleWaypoints(w http.ResponseWriter, r *http.Request) {
	system := r.URL.Path[len("/api/waypoints/"):]
	if system == "" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, s.planner.WaypointsInSystem(system))
}

// Stats is the per-manager "busy" and channel-depth diagnostic dump
// named in §4.4 and §6.
type Stats struct {
	ShipCount    int          `json:"ship_count"`
	Trade        managerStat  `json:"trade"`
	Contract     busyOnlyStat `json:"contract"`
	Construction busyOnlyStat `json:"construction"`
}

type managerStat struct {
	Busy          bool `json:"busy"`
	TotalCapacity int  `json:"total_capacity"`
	UsedCapacity  int  `json:"used_capacity"`
}

type busyOnlyStat struct {
	Busy bool `json:"busy"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	tradeState := s.trade.ChannelState()
	writeJSON(w, Stats{
		ShipCount: s.ships.Count(),
		Trade: managerStat{
			Busy:          s.trade.IsBusy(),
			TotalCapacity: tradeState.TotalCapacity,
			UsedCapacity:  tradeState.UsedCapacity,
		},
		Contract:     busyOnlyStat{Busy: s.contract.IsBusy()},
		Construction: busyOnlyStat{Busy: s.build.IsBusy()},
	})
}

// ForwardShipSnapshots subscribes to the ship manager's broadcast and
// republishes every snapshot on the inspection hub until ctx is
// cancelled (§6 "forwards the ship-snapshot broadcast... verbatim").
func ForwardShipSnapshots(ctx context.Context, ships *shipmanager.Manager, hub *Hub) {
	sub := ships.GetRx()
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.Snapshots():
			if !ok {
				return
			}
			hub.PublishShipSnapshot(snap)
		}
	}
}
