package contracts

import "github.com/suvo-labs/suvo/protocol/models"

type IEditParser interface {
	Split(text string) (narration string, payload string)
	ExtractPartial(payload string) []models.FileOperation
	ParseFinal(text string) models.ParseResult
	FinalNarration(text string) string
}
