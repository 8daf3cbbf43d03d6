package keypager

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrInvalidParam is returned for pagination parameters that cannot be
// served, e.g. an unknown direction or a sort column with forbidden symbols.
var ErrInvalidParam = errors.New("invalid pagination parameter")

// FilterFunc builds the caller filter of an entity from its filter
// parameters, e.g. free-text matching on named string columns:
//
//	func(p PostFilter) keypager.Predicate {
//		return keypager.Disjunction{
//			{keypager.Contains("title", p.Title)},
//			{keypager.Contains("content", p.Content)},
//		}
//	}
type FilterFunc[P any] func(params P) Predicate

// PaginateParam is the caller input for one page request.
type PaginateParam[P any] struct {
	// Size is the page size. Values <= 0 mean the default size.
	Size int `json:"size,omitempty"`
	// SortBy is the sort column. Empty means the primary key.
	SortBy string `json:"sortBy,omitempty"`
	// Direction is the scan direction. Empty means ascending.
	Direction Direction `json:"direction,omitempty"`
	// Filter holds the entity-specific filter fields.
	Filter P `json:"filter"`
}

// Outcome tells how the pagination state of a page was obtained.
type Outcome int

const (
	// OutcomeFresh - no token was given, the state comes from PaginateParam.
	OutcomeFresh Outcome = iota
	// OutcomeResumed - the state was decoded from the continuation token.
	OutcomeResumed
	// OutcomeFellBackToDefault - the token could not be decoded or validated
	// and the default first page was served instead.
	OutcomeFellBackToDefault
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFresh:
		return "fresh"
	case OutcomeResumed:
		return "resumed"
	case OutcomeFellBackToDefault:
		return "fell_back_to_default"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Page is one page of entities.
type Page[T any] struct {
	Entities []T `json:"entities"`
	// NextPageToken is nil on the last page.
	NextPageToken *string `json:"nextPageToken"`
	Outcome       Outcome `json:"-"`
}

// HasNext returns true if a further page exists.
func (p *Page[T]) HasNext() bool {
	return p != nil && p.NextPageToken != nil
}

// Config holds tunables of a Paginator.
type Config struct {
	DefaultSize int `mapstructure:"default_size"`
	MaxSize     int `mapstructure:"max_size"`
	// StrictSortColumns rejects unknown sort columns with ErrUnknownColumn
	// instead of sorting by the primary key.
	StrictSortColumns bool `mapstructure:"strict_sort_columns"`
}

// DefaultConfig returns the configuration used by NewPaginator.
func DefaultConfig() Config {
	return Config{
		DefaultSize: DefaultSize,
		MaxSize:     MaxSize,
	}
}

// Paginator serves keyset-paginated pages of entity T filtered by parameters
// P. It holds no per-request state and is safe for concurrent use once
// configured.
type Paginator[T any, P any] struct {
	meta   *EntityMetadata[T]
	store  Store[T]
	codec  TokenCodec
	filter FilterFunc[P]
	logger *zap.Logger
	cfg    Config
}

func NewPaginator[T any, P any](meta *EntityMetadata[T], store Store[T], codec TokenCodec) *Paginator[T, P] {
	return &Paginator[T, P]{
		meta:   meta,
		store:  store,
		codec:  codec,
		logger: zap.NewNop(),
		cfg:    DefaultConfig(),
	}
}

// WithFilter sets the filter builder applied to the filter parameters.
func (p *Paginator[T, P]) WithFilter(filter FilterFunc[P]) *Paginator[T, P] {
	p.filter = filter

	return p
}

// WithLogger sets the logger. Token decode failures are logged at warn level.
func (p *Paginator[T, P]) WithLogger(logger *zap.Logger) *Paginator[T, P] {
	if logger == nil {
		logger = zap.NewNop()
	}
	p.logger = logger.With(zap.String("entity", p.meta.Name()))

	return p
}

// WithConfig replaces the tunables. Non-positive sizes keep their defaults.
func (p *Paginator[T, P]) WithConfig(cfg Config) *Paginator[T, P] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = MaxSize
	}
	if cfg.DefaultSize <= 0 {
		cfg.DefaultSize = DefaultSize
	}
	cfg.DefaultSize = min(cfg.DefaultSize, cfg.MaxSize)
	p.cfg = cfg

	return p
}

// WithStrictSortColumns makes unknown sort columns an error.
func (p *Paginator[T, P]) WithStrictSortColumns() *Paginator[T, P] {
	p.cfg.StrictSortColumns = true

	return p
}

// Paginate fetches one page.
//
// Without a token the page starts at the beginning of the dataset defined by
// params. With a token, iteration resumes exactly where the previous page
// ended, using the size, sort, direction and filter stored in the token;
// params are ignored. A token that cannot be decoded is logged and replaced
// by the default first page, reported as OutcomeFellBackToDefault.
//
// One extra row is requested to detect whether a further page exists. Store
// errors are returned unchanged.
func (p *Paginator[T, P]) Paginate(ctx context.Context, params PaginateParam[P], token string) (*Page[T], error) {
	state, outcome, err := p.resolveState(params, token)
	if err != nil {
		return nil, fmt.Errorf("cannot paginate %s: %w", p.meta.Name(), err)
	}

	var boundary Disjunction
	if outcome == OutcomeResumed {
		boundary = p.boundary(state)
	}

	opts := FindOptions{
		Where: MergeFilter(p.makeFilter(state.FilterParams), boundary),
		Order: p.ordering(state.InitialTokenData),
		Take:  state.Size + 1,
	}
	if ce := p.logger.Check(zap.DebugLevel, "page query"); ce != nil {
		where, args := opts.Where.ToSQL()
		ce.Write(
			zap.String("where", where),
			zap.Any("args", args),
			zap.String("order", opts.Order.ToSQL()),
			zap.Int("take", opts.Take),
		)
	}

	rows, err := p.store.Find(ctx, opts)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}

	page := &Page[T]{Entities: rows, Outcome: outcome}
	if IsLastPage(state.Size, rows) {
		return page, nil
	}

	next := rows[state.Size]
	page.Entities = TrimResultSet(state.Size, rows)

	nextToken, err := p.nextToken(state, next)
	if err != nil {
		return nil, fmt.Errorf("cannot paginate %s: %w", p.meta.Name(), err)
	}
	page.NextPageToken = &nextToken

	return page, nil
}

// IsLastPage returns true if the result set fetched with a lookahead of one
// row is the last page, i.e. it holds no more than size rows.
func IsLastPage[T any](size int, resultSet []T) bool {
	return len(resultSet) <= size
}

// TrimResultSet drops the lookahead row. Suppose size = 2 and
// resultSet = [a, b, c]; the result is [a, b].
func TrimResultSet[T any](size int, resultSet []T) []T {
	if len(resultSet) > size {
		resultSet = resultSet[:size]
	}

	return resultSet
}

func (p *Paginator[T, P]) resolveState(params PaginateParam[P], token string) (TokenData[P], Outcome, error) {
	if token != "" {
		data, err := DecodeToken[P](p.codec, token)
		if err == nil {
			err = p.validateTokenData(data)
		}
		if err == nil {
			return data, OutcomeResumed, nil
		}

		p.logger.Warn("cannot resume pagination, serving first page", zap.Error(err))

		return TokenData[P]{InitialTokenData: p.defaultState()}, OutcomeFellBackToDefault, nil
	}

	initial, err := p.initialState(params)
	if err != nil {
		return TokenData[P]{}, OutcomeFresh, err
	}

	return TokenData[P]{InitialTokenData: initial, FilterParams: params.Filter}, OutcomeFresh, nil
}

func (p *Paginator[T, P]) defaultState() InitialTokenData {
	pk := p.meta.PrimaryKey()

	return InitialTokenData{
		Size:      p.cfg.DefaultSize,
		SortBy:    pk,
		Direction: DirectionASC,
		CursorBy:  pk,
	}
}

func (p *Paginator[T, P]) initialState(params PaginateParam[P]) (InitialTokenData, error) {
	ret := p.defaultState()

	if params.Size > 0 {
		ret.Size = NormalizeSizeMax(params.Size, p.cfg.MaxSize)
	}

	if params.Direction != "" {
		direction, err := ParseDirection(string(params.Direction))
		if err != nil {
			return InitialTokenData{}, fmt.Errorf("%w: %w", ErrInvalidParam, err)
		}
		ret.Direction = direction
	}

	if params.SortBy != "" {
		sortBy, err := p.resolveSortColumn(params.SortBy)
		if err != nil {
			return InitialTokenData{}, err
		}
		ret.SortBy = sortBy
		ret.CursorBy = ResolveCursor(p.meta, sortBy)
	}

	return ret, nil
}

// resolveSortColumn returns the column to sort by. An unknown column is
// replaced by the primary key, so the issued token can always be resumed,
// unless StrictSortColumns is set.
func (p *Paginator[T, P]) resolveSortColumn(column string) (string, error) {
	if err := validateColumnName(column); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidParam, err)
	}
	if p.meta.HasColumn(column) {
		return column, nil
	}

	closest := closestColumn(column, p.meta.Columns())
	if p.cfg.StrictSortColumns {
		return "", fmt.Errorf("%w '%s'. closest: '%s'", ErrUnknownColumn, column, closest)
	}

	p.logger.Warn(
		"unknown sort column, sorting by primary key",
		zap.String("sortBy", column),
		zap.String("closest", closest),
	)

	return p.meta.PrimaryKey(), nil
}

// validateTokenData treats the token payload as untrusted input before any
// of it reaches a query.
func (p *Paginator[T, P]) validateTokenData(data TokenData[P]) error {
	if _, ok := IsNormalizedSizeMax(data.Size, p.cfg.MaxSize); !ok {
		return fmt.Errorf("token size %d out of range", data.Size)
	}
	if !data.Direction.Valid() {
		return fmt.Errorf("token direction '%s' is invalid", data.Direction)
	}
	if !p.meta.IsUnique(data.CursorBy) || !p.meta.IsNotNull(data.CursorBy) {
		return fmt.Errorf("token cursor column '%s' is not a unique non-null column", data.CursorBy)
	}
	if data.CursorValue == nil {
		return fmt.Errorf("token has no cursor value")
	}
	if err := validateColumnName(data.SortBy); err != nil {
		return err
	}
	if !p.meta.HasColumn(data.SortBy) {
		return fmt.Errorf("token sort column '%s': %w", data.SortBy, ErrUnknownColumn)
	}
	if data.SortValue == nil && p.meta.IsNotNull(data.SortBy) {
		return fmt.Errorf("token has no sort value for non-null column '%s'", data.SortBy)
	}

	return nil
}

func (p *Paginator[T, P]) makeFilter(params P) Predicate {
	if p.filter == nil {
		return nil
	}

	return p.filter(params)
}

// boundary selects the rows from the cursor row on. A nullable sort column
// gets the NULL-aware variant.
func (p *Paginator[T, P]) boundary(state TokenData[P]) Disjunction {
	if p.meta.IsNotNull(state.SortBy) {
		return BoundaryPredicate(state.Direction, state.SortBy, state.SortValue, state.CursorBy, state.CursorValue)
	}

	return NullableBoundaryPredicate(state.Direction, state.SortBy, state.SortValue, state.CursorBy, state.CursorValue)
}

// ordering sorts by the sort column, then by the tie-break column. NULLs of
// a nullable sort column come first in ascending order, the way the boundary
// expects them.
func (p *Paginator[T, P]) ordering(state InitialTokenData) Orderings {
	ret := NewOrderings(state.Direction, state.SortBy, state.CursorBy)
	if len(ret) > 0 && !p.meta.IsNotNull(state.SortBy) {
		ret[0].Nullable = true
	}

	return ret
}

func (p *Paginator[T, P]) nextToken(state TokenData[P], next T) (string, error) {
	sortValue, _ := p.meta.Value(next, state.SortBy)
	cursorValue, _ := p.meta.Value(next, state.CursorBy)

	data := TokenData[P]{
		InitialTokenData: state.InitialTokenData,
		SortValue:        sortValue,
		CursorValue:      cursorValue,
		FilterParams:     state.FilterParams,
	}

	token, err := EncodeToken(p.codec, data)
	if err != nil {
		return "", err
	}

	p.logger.Debug(
		"issued next page token",
		zap.String("sortBy", data.SortBy),
		zap.String("cursorBy", data.CursorBy),
		zap.Any("sortValue", sortValue),
		zap.Any("cursorValue", cursorValue),
	)

	return token, nil
}
