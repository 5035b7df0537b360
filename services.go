package wiki

// FactorService manages factors
type FactorService = ResourceService[Factor, FactorInput, FactorPatch]

// BeliefService manages beliefs
type BeliefService = ResourceService[Belief, BeliefInput, BeliefPatch]

// AttributionService manages attributions
type AttributionService = ResourceService[Attribution, AttributionInput, AttributionPatch]

func NewFactorService(store Store[Factor]) *FactorService {
	return NewResourceService[Factor, FactorInput, FactorPatch]("factor", store)
}

func NewBeliefService(store Store[Belief]) *BeliefService {
	return NewResourceService[Belief, BeliefInput, BeliefPatch]("belief", store)
}

func NewAttributionService(store Store[Attribution]) *AttributionService {
	return NewResourceService[Attribution, AttributionInput, AttributionPatch]("attribution", store)
}

// Services bundles the per resource services built over one repository manager
type Services struct {
	Factors      *FactorService
	Beliefs      *BeliefService
	Attributions *AttributionService
}

// NewServices wires every resource service to repo
func NewServices(repo RepositoryManager, logger Logger) *Services {
	return &Services{
		Factors:      NewFactorService(repo.Factors()).WithLogger(logger),
		Beliefs:      NewBeliefService(repo.Beliefs()).WithLogger(logger),
		Attributions: NewAttributionService(repo.Attributions()).WithLogger(logger),
	}
}
