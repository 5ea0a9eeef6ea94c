// Package marketcache is the in-memory read-model of §4.5/§4.6: every
// market snapshot a scraper pulls lands here, and trademanager,
// constructionmanager, and contractmanager all read it back through
// their own narrow collaborator interfaces rather than calling each
// other. Grounded on scrapmanager's own waypointRecord bookkeeping
// (same "one record per waypoint" shape, here guarded by a mutex rather
// than owned by an actor goroutine) and on
// trademanager.MarketIndex/constructionmanager.SupplySource/
// contractmanager.SupplySource, the three ports this cache implements.
package marketcache

import (
	"sync"
	"time"

	"github.com/acdtunes/fleetctl/internal/domain/market"
	"github.com/acdtunes/fleetctl/internal/domain/ports"
	"github.com/acdtunes/fleetctl/internal/domain/shared"
)

// entry is the cache's view of one waypoint's most recent market
// snapshot, plus whether it carries per-good supply/activity detail
// (trademanager's "detailed" candidates, §4.6).
type entry struct {
	market   *market.Market
	detailed bool
}

// Cache is a mutex-guarded map of waypoint to its latest market
// snapshot, indexed secondarily by system for MarketsInSystem.
type Cache struct {
	mu      sync.RWMutex
	byWp    map[string]entry
	bySys   map[string]map[string]struct{} // system -> set of waypoints
}

func New() *Cache {
	return &Cache{
		byWp:  make(map[string]entry),
		bySys: make(map[string]map[string]struct{}),
	}
}

// Update ingests a GetMarket response, replacing any prior snapshot for
// the same waypoint. A good counts as "detailed" data once it carries a
// non-empty supply or activity label, matching how the remote API only
// returns those fields for markets a ship has physically visited.
func (c *Cache) Update(waypointSymbol string, goods []ports.TradeGoodData) {
	tradeGoods := make([]market.TradeGood, 0, len(goods))
	detailed := false
	for _, g := range goods {
		var supply, activity *string
		if g.Supply != "" {
			s := g.Supply
			supply = &s
			detailed = true
		}
		if g.Activity != "" {
			a := g.Activity
			activity = &a
			detailed = true
		}
		tg, err := market.NewTradeGood(g.Symbol, supply, activity, int(g.PurchasePrice), int(g.SellPrice), g.TradeVolume)
		if err != nil {
			continue
		}
		tradeGoods = append(tradeGoods, *tg)
	}

	m, err := market.NewMarket(waypointSymbol, tradeGoods, time.Now())
	if err != nil {
		return
	}

	system := shared.ExtractSystemSymbol(waypointSymbol)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byWp[waypointSymbol] = entry{market: m, detailed: detailed}
	if c.bySys[system] == nil {
		c.bySys[system] = make(map[string]struct{})
	}
	c.bySys[system][waypointSymbol] = struct{}{}
}

// MarketsInSystem implements trademanager.MarketIndex.
func (c *Cache) MarketsInSystem(system string) []*market.Market {
	c.mu.RLock()
	defer c.mu.RUnlock()
	waypoints := c.bySys[system]
	out := make([]*market.Market, 0, len(waypoints))
	for wp := range waypoints {
		out = append(out, c.byWp[wp].market)
	}
	return out
}

// HasDetailedData implements trademanager.MarketIndex.
func (c *Cache) HasDetailedData(waypoint string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byWp[waypoint].detailed
}

// PurchaseWaypointAndPrice implements constructionmanager.SupplySource:
// the cheapest waypoint across every cached market currently selling
// tradeSymbol.
func (c *Cache) PurchaseWaypointAndPrice(tradeSymbol string) (string, int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var bestWaypoint string
	var bestPrice int64
	found := false
	for wp, e := range c.byWp {
		good := e.market.FindGood(tradeSymbol)
		if good == nil || good.PurchasePrice() <= 0 {
			continue
		}
		price := int64(good.PurchasePrice())
		if !found || price < bestPrice {
			found = true
			bestPrice = price
			bestWaypoint = wp
		}
	}
	return bestWaypoint, bestPrice, found
}

// PurchaseWaypointFor implements contractmanager.SupplySource: the
// cheapest waypoint currently selling tradeSymbol, ignoring price.
func (c *Cache) PurchaseWaypointFor(tradeSymbol string) (string, bool) {
	waypoint, _, ok := c.PurchaseWaypointAndPrice(tradeSymbol)
	return waypoint, ok
}
