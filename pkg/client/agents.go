package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Agent describes a remote agent
type Agent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Model       string    `json:"model,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MemoryBlock is one labeled block of an agent's core memory
type MemoryBlock struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
	Limit int    `json:"limit,omitempty"`
}

// CreateAgentRequest holds the fields needed to create an agent
type CreateAgentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Model       string `json:"model,omitempty"`
}

// ListAgents returns all agents visible to the caller
func (c *AgentClient) ListAgents(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	if err := c.doJSON(ctx, "GET", "/v1/agents", nil, &agents); err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

// CreateAgent creates a new agent on the server
func (c *AgentClient) CreateAgent(ctx context.Context, req CreateAgentRequest) (Agent, error) {
	var agent Agent
	if err := c.doJSON(ctx, "POST", "/v1/agents", req, &agent); err != nil {
		return Agent{}, fmt.Errorf("failed to create agent: %w", err)
	}
	return agent, nil
}

// DeleteAgent removes an agent
func (c *AgentClient) DeleteAgent(ctx context.Context, agentID string) error {
	path := "/v1/agents/" + url.PathEscape(agentID)
	if err := c.doJSON(ctx, "DELETE", path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete agent %s: %w", agentID, err)
	}
	return nil
}

// ListModels returns the model names the server can run agents on
func (c *AgentClient) ListModels(ctx context.Context) ([]string, error) {
	var models []struct {
		Handle string `json:"handle"`
		Name   string `json:"name"`
	}
	if err := c.doJSON(ctx, "GET", "/v1/models", nil, &models); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	names := make([]string, 0, len(models))
	for _, m := range models {
		if m.Handle != "" {
			names = append(names, m.Handle)
			continue
		}
		names = append(names, m.Name)
	}
	return names, nil
}

// ListMemoryBlocks returns an agent's core memory blocks
func (c *AgentClient) ListMemoryBlocks(ctx context.Context, agentID string) ([]MemoryBlock, error) {
	path := "/v1/agents/" + url.PathEscape(agentID) + "/core-memory/blocks"
	var blocks []MemoryBlock
	if err := c.doJSON(ctx, "GET", path, nil, &blocks); err != nil {
		return nil, fmt.Errorf("failed to list memory blocks: %w", err)
	}
	return blocks, nil
}

// UpdateMemoryBlock replaces the value of one core memory block
func (c *AgentClient) UpdateMemoryBlock(ctx context.Context, agentID, label, value string) error {
	path := "/v1/agents/" + url.PathEscape(agentID) + "/core-memory/blocks/" + url.PathEscape(label)
	body := map[string]string{"value": value}
	if err := c.doJSON(ctx, "PATCH", path, body, nil); err != nil {
		return fmt.Errorf("failed to update memory block %s: %w", label, err)
	}
	return nil
}
