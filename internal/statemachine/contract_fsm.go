package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sjperalta/fintera-rentals/internal/models"
)

// Contract events
const (
	EventActivate = "activate"
	EventComplete = "complete"
	EventVoid     = "void"
)

// ContractFSM wraps a contract with its state machine
type ContractFSM struct {
	contract *models.Contract
	fsm      *fsm.FSM
}

// NewContractFSM creates a new contract state machine
func NewContractFSM(contract *models.Contract) *ContractFSM {
	cfsm := &ContractFSM{
		contract: contract,
	}

	cfsm.fsm = fsm.NewFSM(
		contract.Status,
		fsm.Events{
			// draft → active (eligible for recognition)
			{Name: EventActivate, Src: []string{models.ContractStatusDraft}, Dst: models.ContractStatusActive},

			// active → completed
			{Name: EventComplete, Src: []string{models.ContractStatusActive}, Dst: models.ContractStatusCompleted},

			// draft/active → void
			{Name: EventVoid, Src: []string{models.ContractStatusDraft, models.ContractStatusActive}, Dst: models.ContractStatusVoid},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

// Activate transitions contract to active state
func (c *ContractFSM) Activate(ctx context.Context) error {
	if !c.contract.MayActivate() {
		return fmt.Errorf("contract cannot be activated in current state: %s", c.contract.Status)
	}
	return c.fire(ctx, EventActivate)
}

// Complete transitions contract to completed state
func (c *ContractFSM) Complete(ctx context.Context) error {
	if !c.contract.MayComplete() {
		return fmt.Errorf("contract cannot be completed in current state: %s", c.contract.Status)
	}
	return c.fire(ctx, EventComplete)
}

// Void transitions contract to void state
func (c *ContractFSM) Void(ctx context.Context) error {
	if !c.contract.MayVoid() {
		return fmt.Errorf("contract cannot be voided in current state: %s", c.contract.Status)
	}
	return c.fire(ctx, EventVoid)
}

func (c *ContractFSM) fire(ctx context.Context, event string) error {
	if err := c.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("failed to %s contract: %w", event, err)
	}
	c.contract.Status = c.fsm.Current()
	return nil
}

// Current returns the current state
func (c *ContractFSM) Current() string {
	return c.fsm.Current()
}

// Can checks if a transition is possible
func (c *ContractFSM) Can(event string) bool {
	return c.fsm.Can(event)
}
