package persistence

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/acdtunes/fleetctl/internal/domain/ports"
)

// Store implements ports.Store over a single gorm.DB opened with either
// dialector database.NewConnection supports (sqlite in dev, postgres in
// production). Each sub-repository is a thin struct closing over the
// same *gorm.DB — no connection pooling logic lives here, that's
// database.NewConnection's job (spec.md's config/database concern).
type Store struct {
	db *gorm.DB

	tradeRoutes            *tradeRouteRepo
	contractShipments      *contractShipmentRepo
	constructionShipments  *constructionShipmentRepo
	reservedFunds          *reservedFundRepo
	scrapSchedule          *scrapScheduleRepo
	shipRoles              *shipRoleRepo
	waypoints              *waypointRepo
	jumpConnections        *jumpConnectionRepo
	contracts              *contractRepo
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:                    db,
		tradeRoutes:           &tradeRouteRepo{db: db},
		contractShipments:     &contractShipmentRepo{db: db},
		constructionShipments: &constructionShipmentRepo{db: db},
		reservedFunds:         &reservedFundRepo{db: db},
		scrapSchedule:         &scrapScheduleRepo{db: db},
		shipRoles:             &shipRoleRepo{db: db},
		waypoints:             &waypointRepo{db: db},
		jumpConnections:       &jumpConnectionRepo{db: db},
		contracts:             &contractRepo{db: db},
	}
}

var _ ports.Store = (*Store)(nil)

func (s *Store) TradeRoutes() ports.TradeRouteRepository                   { return s.tradeRoutes }
func (s *Store) ContractShipments() ports.ContractShipmentRepository       { return s.contractShipments }
func (s *Store) ConstructionShipments() ports.ConstructionShipmentRepository { return s.constructionShipments }
func (s *Store) ReservedFunds() ports.ReservedFundRepository               { return s.reservedFunds }
func (s *Store) ScrapSchedule() ports.ScrapScheduleRepository              { return s.scrapSchedule }
func (s *Store) ShipRoles() ports.ShipRoleRepository                       { return s.shipRoles }
func (s *Store) Waypoints() ports.WaypointRepository                       { return s.waypoints }
func (s *Store) JumpConnections() ports.JumpConnectionRepository           { return s.jumpConnections }
func (s *Store) Contracts() ports.ContractRepository                       { return s.contracts }

type tradeRouteRepo struct{ db *gorm.DB }

func (r *tradeRouteRepo) Insert(ctx context.Context, row ports.TradeRouteRow) (ports.TradeRouteRow, error) {
	m := tradeRouteRowToModel(row)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return ports.TradeRouteRow{}, err
	}
	return tradeRouteModelToRow(m), nil
}

func (r *tradeRouteRepo) GetAll(ctx context.Context) ([]ports.TradeRouteRow, error) {
	var models []TradeRouteModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ports.TradeRouteRow, 0, len(models))
	for _, m := range models {
		out = append(out, tradeRouteModelToRow(m))
	}
	return out, nil
}

func (r *tradeRouteRepo) FindUnfinishedByShip(ctx context.Context, shipSymbol string) ([]ports.TradeRouteRow, error) {
	var models []TradeRouteModel
	if err := r.db.WithContext(ctx).Where("ship_symbol = ? AND finished = ?", shipSymbol, false).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ports.TradeRouteRow, 0, len(models))
	for _, m := range models {
		out = append(out, tradeRouteModelToRow(m))
	}
	return out, nil
}

func (r *tradeRouteRepo) MarkFinished(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&TradeRouteModel{}).Where("id = ?", id).Update("finished", true).Error
}

func tradeRouteRowToModel(r ports.TradeRouteRow) TradeRouteModel {
	return TradeRouteModel{
		ID: r.ID, TradeSymbol: r.TradeSymbol, ShipSymbol: r.ShipSymbol,
		PurchaseWaypoint: r.PurchaseWaypoint, SellWaypoint: r.SellWaypoint,
		PredictedBuy: r.PredictedBuy, PredictedSell: r.PredictedSell,
		TradeVolume: r.TradeVolume, Finished: r.Finished,
	}
}

func tradeRouteModelToRow(m TradeRouteModel) ports.TradeRouteRow {
	return ports.TradeRouteRow{
		ID: m.ID, TradeSymbol: m.TradeSymbol, ShipSymbol: m.ShipSymbol,
		PurchaseWaypoint: m.PurchaseWaypoint, SellWaypoint: m.SellWaypoint,
		PredictedBuy: m.PredictedBuy, PredictedSell: m.PredictedSell,
		TradeVolume: m.TradeVolume, Finished: m.Finished,
	}
}

type contractShipmentRepo struct{ db *gorm.DB }

func (r *contractShipmentRepo) Insert(ctx context.Context, row ports.ContractShipmentRow) (ports.ContractShipmentRow, error) {
	m := ContractShipmentModel{
		ID: row.ID, ContractID: row.ContractID, ShipSymbol: row.ShipSymbol, TradeSymbol: row.TradeSymbol,
		Units: row.Units, PurchaseWaypoint: row.PurchaseWaypoint, DestinationWaypoint: row.DestinationWaypoint,
		Status: row.Status,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return ports.ContractShipmentRow{}, err
	}
	return row, nil
}

func (r *contractShipmentRepo) GetAll(ctx context.Context) ([]ports.ContractShipmentRow, error) {
	var models []ContractShipmentModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ports.ContractShipmentRow, 0, len(models))
	for _, m := range models {
		out = append(out, ports.ContractShipmentRow{
			ID: m.ID, ContractID: m.ContractID, ShipSymbol: m.ShipSymbol, TradeSymbol: m.TradeSymbol,
			Units: m.Units, PurchaseWaypoint: m.PurchaseWaypoint, DestinationWaypoint: m.DestinationWaypoint,
			Status: m.Status,
		})
	}
	return out, nil
}

func (r *contractShipmentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&ContractShipmentModel{}).Where("id = ?", id).Update("status", status).Error
}

type constructionShipmentRepo struct{ db *gorm.DB }

func (r *constructionShipmentRepo) Insert(ctx context.Context, row ports.ConstructionShipmentRow) (ports.ConstructionShipmentRow, error) {
	m := ConstructionShipmentModel{
		ID: row.ID, SiteWaypoint: row.SiteWaypoint, ShipSymbol: row.ShipSymbol, TradeSymbol: row.TradeSymbol,
		Units: row.Units, PurchaseWaypoint: row.PurchaseWaypoint, Status: row.Status,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return ports.ConstructionShipmentRow{}, err
	}
	return row, nil
}

func (r *constructionShipmentRepo) GetAll(ctx context.Context) ([]ports.ConstructionShipmentRow, error) {
	var models []ConstructionShipmentModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ports.ConstructionShipmentRow, 0, len(models))
	for _, m := range models {
		out = append(out, ports.ConstructionShipmentRow{
			ID: m.ID, SiteWaypoint: m.SiteWaypoint, ShipSymbol: m.ShipSymbol, TradeSymbol: m.TradeSymbol,
			Units: m.Units, PurchaseWaypoint: m.PurchaseWaypoint, Status: m.Status,
		})
	}
	return out, nil
}

func (r *constructionShipmentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&ConstructionShipmentModel{}).Where("id = ?", id).Update("status", status).Error
}

type reservedFundRepo struct{ db *gorm.DB }

func (r *reservedFundRepo) Insert(ctx context.Context, row ports.ReservedFundRow) (ports.ReservedFundRow, error) {
	m := ReservedFundModel{ID: row.ID, Amount: row.Amount, ActualAmount: row.ActualAmount, Status: row.Status}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return ports.ReservedFundRow{}, err
	}
	return row, nil
}

func (r *reservedFundRepo) GetAll(ctx context.Context) ([]ports.ReservedFundRow, error) {
	var models []ReservedFundModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ports.ReservedFundRow, 0, len(models))
	for _, m := range models {
		out = append(out, ports.ReservedFundRow{ID: m.ID, Amount: m.Amount, ActualAmount: m.ActualAmount, Status: m.Status})
	}
	return out, nil
}

func (r *reservedFundRepo) UpdateStatus(ctx context.Context, id string, status string, actualAmount int64) error {
	return r.db.WithContext(ctx).Model(&ReservedFundModel{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "actual_amount": actualAmount}).Error
}

type scrapScheduleRepo struct{ db *gorm.DB }

func (r *scrapScheduleRepo) GetAll(ctx context.Context) ([]ports.ScrapScheduleRow, error) {
	var models []ScrapScheduleModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ports.ScrapScheduleRow, 0, len(models))
	for _, m := range models {
		out = append(out, ports.ScrapScheduleRow{
			WaypointSymbol: m.WaypointSymbol, LastScrapedAt: m.LastScrapedAt,
			Exports: m.Exports, Imports: m.Imports, Exchanges: m.Exchanges,
		})
	}
	return out, nil
}

func (r *scrapScheduleRepo) Upsert(ctx context.Context, row ports.ScrapScheduleRow) error {
	m := ScrapScheduleModel{
		WaypointSymbol: row.WaypointSymbol, LastScrapedAt: row.LastScrapedAt,
		Exports: row.Exports, Imports: row.Imports, Exchanges: row.Exchanges,
	}
	return r.db.WithContext(ctx).Save(&m).Error
}

type shipRoleRepo struct{ db *gorm.DB }

func (r *shipRoleRepo) GetAll(ctx context.Context) ([]ports.ShipRoleRow, error) {
	var models []ShipRoleModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ports.ShipRoleRow, 0, len(models))
	for _, m := range models {
		out = append(out, ports.ShipRoleRow{ShipSymbol: m.ShipSymbol, RoleKind: m.RoleKind, RoleData: m.RoleData, Active: m.Active})
	}
	return out, nil
}

func (r *shipRoleRepo) Upsert(ctx context.Context, row ports.ShipRoleRow) error {
	m := ShipRoleModel{ShipSymbol: row.ShipSymbol, RoleKind: row.RoleKind, RoleData: row.RoleData, Active: row.Active}
	return r.db.WithContext(ctx).Save(&m).Error
}

type waypointRepo struct{ db *gorm.DB }

func (r *waypointRepo) GetAll(ctx context.Context) ([]ports.WaypointRow, error) {
	var models []WaypointModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ports.WaypointRow, 0, len(models))
	for _, m := range models {
		out = append(out, ports.WaypointRow{
			Symbol: m.Symbol, SystemSymbol: m.SystemSymbol, X: m.X, Y: m.Y,
			Type: m.Type, Traits: splitTraits(m.Traits),
		})
	}
	return out, nil
}

func (r *waypointRepo) InsertBulk(ctx context.Context, rows []ports.WaypointRow) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]WaypointModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, WaypointModel{
			Symbol: row.Symbol, SystemSymbol: row.SystemSymbol, X: row.X, Y: row.Y,
			Type: row.Type, Traits: joinTraits(row.Traits),
		})
	}
	return r.db.WithContext(ctx).CreateInBatches(models, 100).Error
}

func joinTraits(traits []string) string { return strings.Join(traits, ",") }

func splitTraits(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

type jumpConnectionRepo struct{ db *gorm.DB }

func (r *jumpConnectionRepo) GetAll(ctx context.Context) ([]ports.JumpConnectionRow, error) {
	var models []JumpConnectionModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ports.JumpConnectionRow, 0, len(models))
	for _, m := range models {
		out = append(out, ports.JumpConnectionRow{
			A: m.A, B: m.B, Distance: m.Distance,
			AUnderConstruction: m.AUnderConstruction, BUnderConstruction: m.BUnderConstruction,
		})
	}
	return out, nil
}

func (r *jumpConnectionRepo) InsertBulk(ctx context.Context, rows []ports.JumpConnectionRow) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]JumpConnectionModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, JumpConnectionModel{
			A: row.A, B: row.B, Distance: row.Distance,
			AUnderConstruction: row.AUnderConstruction, BUnderConstruction: row.BUnderConstruction,
		})
	}
	return r.db.WithContext(ctx).CreateInBatches(models, 100).Error
}

type contractRepo struct{ db *gorm.DB }

func (r *contractRepo) Insert(ctx context.Context, row ports.ContractRow) (ports.ContractRow, error) {
	m := ContractModel{ID: row.ID, FactionSymbol: row.FactionSymbol, Type: row.Type, Accepted: row.Accepted, Fulfilled: row.Fulfilled}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return ports.ContractRow{}, err
	}
	return row, nil
}

func (r *contractRepo) FindActive(ctx context.Context) ([]ports.ContractRow, error) {
	var models []ContractModel
	if err := r.db.WithContext(ctx).Where("accepted = ? AND fulfilled = ?", true, false).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ports.ContractRow, 0, len(models))
	for _, m := range models {
		out = append(out, ports.ContractRow{ID: m.ID, FactionSymbol: m.FactionSymbol, Type: m.Type, Accepted: m.Accepted, Fulfilled: m.Fulfilled})
	}
	return out, nil
}

func (r *contractRepo) FindByID(ctx context.Context, id string) (ports.ContractRow, error) {
	var m ContractModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return ports.ContractRow{}, err
	}
	return ports.ContractRow{ID: m.ID, FactionSymbol: m.FactionSymbol, Type: m.Type, Accepted: m.Accepted, Fulfilled: m.Fulfilled}, nil
}
