package flow

import "github.com/pkg/errors"

var (
	ErrFlowMustBeSet     = errors.New("flow must be set")
	ErrOperatorMustBeSet = errors.New("operator must be set")
	ErrNotFitted         = errors.New("flow has not been fit")
	ErrEmptyFlow         = errors.New("flow has no nodes")
	ErrEmptyBranch       = errors.New("branch has no operators")
	ErrNoSink            = errors.New("flow has no sink node")
	ErrMultipleSinks     = errors.New("flow has more than one sink node")
	ErrTooManyParents    = errors.New("operator node accepts a single parent")
	ErrUnionParents      = errors.New("union node needs at least two parents")
	ErrNodeNotFound      = errors.New("node not found")
)
