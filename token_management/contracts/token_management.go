package contracts

type ITokenManagement interface {
	UsedTokens(inputToken int, outputToken int)
	DisplayTokens(chatProviderName string, chatModel string)
	UsageSummary(chatProviderName string, chatModel string) string
	GetCurrentTokenUsage() (total int, input int, output int)
	ClearToken()
}
