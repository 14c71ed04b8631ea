package handlers

// Handlers groups the HTTP endpoints for the skill front door, the generic
// data-access gateway, and the catalogue admin API. It depends on abstract
// service interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	skillSvc     SkillService
	gatewaySvc   GatewayService
	catalogueSvc CatalogueService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(skillSvc SkillService, gatewaySvc GatewayService, catalogueSvc CatalogueService) *Handlers {
	return &Handlers{skillSvc: skillSvc, gatewaySvc: gatewaySvc, catalogueSvc: catalogueSvc}
}
