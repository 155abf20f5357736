package token_management

import (
	"fmt"
	"sync"

	"github.com/suvo-labs/suvo/constants/lipgloss"
	"github.com/suvo-labs/suvo/token_management/contracts"
)

// TokenManager implementation. Providers report usage from their streaming
// goroutines, so every access is guarded.
type tokenManager struct {
	mu              sync.Mutex
	usedToken       int
	usedInputToken  int
	usedOutputToken int
	requests        int
}

// NewTokenManager creates a new token manager
func NewTokenManager() contracts.ITokenManagement {
	return &tokenManager{}
}

// UsedTokens accumulates the token count for the session.
func (tm *tokenManager) UsedTokens(inputToken int, outputToken int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.usedInputToken += inputToken
	tm.usedOutputToken += outputToken
	tm.usedToken += inputToken + outputToken
	tm.requests++
}

func (tm *tokenManager) UsageSummary(chatProviderName string, chatModel string) string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return fmt.Sprintf("Token Used: %d (input %d / output %d) - Requests: %d - Provider: %s - Chat Model: %s",
		tm.usedToken, tm.usedInputToken, tm.usedOutputToken, tm.requests, chatProviderName, chatModel)
}

func (tm *tokenManager) DisplayTokens(chatProviderName string, chatModel string) {
	fmt.Println(lipgloss.BoxStyle.Render(tm.UsageSummary(chatProviderName, chatModel)))
}

func (tm *tokenManager) GetCurrentTokenUsage() (total int, input int, output int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.usedToken, tm.usedInputToken, tm.usedOutputToken
}

func (tm *tokenManager) ClearToken() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.usedToken = 0
	tm.usedInputToken = 0
	tm.usedOutputToken = 0
	tm.requests = 0
}
