package wiki

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"

	"github.com/goliatone/go-wiki/middleware/bearer"
)

// ResourceController exposes a ResourceService over HTTP
type ResourceController[T any, C CreateInput[T], P Patch[T]] struct {
	service *ResourceService[T, C, P]
}

func NewResourceController[T any, C CreateInput[T], P Patch[T]](service *ResourceService[T, C, P]) *ResourceController[T, C, P] {
	if service == nil {
		panic("Missing ResourceService in resource controller...")
	}
	return &ResourceController[T, C, P]{service: service}
}

// Register mounts the CRUD routes under /<name>
func (rc *ResourceController[T, C, P]) Register(router fiber.Router) {
	group := router.Group("/" + rc.service.Name())

	group.Post("/create", rc.Create)
	group.Get("/get_all", rc.List)
	group.Get("/get/:id", rc.Get)
	group.Delete("/delete/:id", rc.Delete)
	group.Put("/update/:id", rc.Update)
}

func (rc *ResourceController[T, C, P]) Create(c *fiber.Ctx) error {
	var input C
	if err := c.BodyParser(&input); err != nil {
		return NewValidationError("invalid request body", err)
	}

	record, err := rc.service.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.JSON(record)
}

func (rc *ResourceController[T, C, P]) List(c *fiber.Ctx) error {
	records, err := rc.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (rc *ResourceController[T, C, P]) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	record, err := rc.service.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(record)
}

func (rc *ResourceController[T, C, P]) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	record, err := rc.service.DeleteByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(record)
}

func (rc *ResourceController[T, C, P]) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var patch P
	if err := c.BodyParser(&patch); err != nil {
		return NewValidationError("invalid request body", err)
	}

	record, err := rc.service.UpdateByID(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(record)
}

func paramID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, NewValidationError(fmt.Sprintf("invalid id %q", raw), err)
	}
	return id, nil
}

// LoginRequest is the sign-in form
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// UserController serves sign-in, sign-up and the current user
type UserController struct {
	Debug      bool
	Logger     Logger
	Auth       *Authenticator
	ContextKey string
	Protected  fiber.Handler
}

type UserControllerOption func(*UserController) *UserController

func WithUserControllerLogger(l Logger) UserControllerOption {
	return func(uc *UserController) *UserController {
		uc.Logger = resolveLogger(l)
		return uc
	}
}

func WithUserControllerDebug(debug bool) UserControllerOption {
	return func(uc *UserController) *UserController {
		uc.Debug = debug
		return uc
	}
}

// WithUserControllerConfig takes the context key, lookup and scheme for the
// bearer middleware from cfg.
func WithUserControllerConfig(cfg Config) UserControllerOption {
	return func(uc *UserController) *UserController {
		if key := cfg.GetContextKey(); key != "" {
			uc.ContextKey = key
		}
		uc.Protected = uc.newProtected(uc.ContextKey, cfg.GetTokenLookup(), cfg.GetAuthScheme())
		return uc
	}
}

func NewUserController(auth *Authenticator, opts ...UserControllerOption) *UserController {
	if auth == nil {
		panic("Missing Authenticator in user controller...")
	}

	uc := &UserController{
		Logger:     defLogger{},
		Auth:       auth,
		ContextKey: "user",
	}

	for _, opt := range opts {
		uc = opt(uc)
	}

	if uc.Protected == nil {
		uc.Protected = uc.newProtected(uc.ContextKey, "", "")
	}

	return uc
}

func (uc *UserController) newProtected(contextKey, lookup, scheme string) fiber.Handler {
	return bearer.New(bearer.Config{
		ContextKey:  contextKey,
		TokenLookup: lookup,
		AuthScheme:  scheme,
		Resolver: func(ctx context.Context, token string) (any, error) {
			return uc.Auth.CurrentUser(ctx, token)
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, bearer.ErrMissingOrMalformed) {
				return &Error{Kind: KindInvalidToken, Message: "Not authenticated", Err: err}
			}
			return err
		},
	})
}

// Register mounts the user routes under /user
func (uc *UserController) Register(router fiber.Router) {
	group := router.Group("/user")

	group.Post("/sign-in", uc.SignIn)
	group.Post("/create", uc.Create)
	group.Get("/me", uc.Protected, uc.Me)
}

func (uc *UserController) SignIn(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return NewValidationError("invalid sign-in form", err)
	}

	if err := payload.Validate(); err != nil {
		return validationFailure(err)
	}

	if uc.Debug {
		fmt.Println("======= WIKI SIGN IN ======")
		fmt.Println(print.MaybePrettyJSON(map[string]any{"username": payload.Username}))
		fmt.Println("===========================")
	}

	token, err := uc.Auth.Login(c.UserContext(), strings.TrimSpace(payload.Username), payload.Password)
	if err != nil {
		uc.Logger.Info("sign in rejected", "error", err)
		return err
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(token)
}

func (uc *UserController) Create(c *fiber.Ctx) error {
	payload := new(UserCreateInput)
	if err := c.BodyParser(payload); err != nil {
		return NewValidationError("invalid request body", err)
	}

	if uc.Debug {
		fmt.Println("======= WIKI SIGN UP ======")
		fmt.Println(print.MaybePrettyJSON(map[string]any{
			"email":     payload.Email,
			"full_name": payload.FullName,
		}))
		fmt.Println("===========================")
	}

	user, err := uc.Auth.SignUp(c.UserContext(), *payload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (uc *UserController) Me(c *fiber.Ctx) error {
	user, ok := c.Locals(uc.ContextKey).(*User)
	if !ok || user == nil {
		return &Error{Kind: KindInvalidToken, Message: ErrInvalidToken.Message}
	}
	return c.JSON(user)
}

// HealthChecker reports store reachability
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers 200 when the store responds to a ping
func HealthHandler(store HealthChecker, timeout time.Duration) fiber.Handler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// API groups every controller served under APIPrefix
type API struct {
	Users        *UserController
	Factors      *ResourceController[Factor, FactorInput, FactorPatch]
	Beliefs      *ResourceController[Belief, BeliefInput, BeliefPatch]
	Attributions *ResourceController[Attribution, AttributionInput, AttributionPatch]
}

// NewAPI builds the controllers for services and auth
func NewAPI(services *Services, auth *Authenticator, opts ...UserControllerOption) *API {
	return &API{
		Users:        NewUserController(auth, opts...),
		Factors:      NewResourceController(services.Factors),
		Beliefs:      NewResourceController(services.Beliefs),
		Attributions: NewResourceController(services.Attributions),
	}
}

// Mount registers every route on app under APIPrefix and the health check
// at /healthz.
func (api *API) Mount(app *fiber.App, health HealthChecker) {
	if health != nil {
		app.Get("/healthz", HealthHandler(health, 0))
	}

	v1 := app.Group(APIPrefix)
	api.Users.Register(v1)
	api.Factors.Register(v1)
	api.Beliefs.Register(v1)
	api.Attributions.Register(v1)
}
