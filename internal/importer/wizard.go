// impactflow-crm/internal/importer/wizard.go
package importer

import "fmt"

// Шаги мастера импорта. Движение строго вперед:
// upload -> map -> preview -> confirm -> executed.
const (
	StepUpload   = "upload"
	StepMap      = "map"
	StepPreview  = "preview"
	StepConfirm  = "confirm"
	StepExecuted = "executed"
)

// ResetScope описывает, какое вычисленное состояние сбрасывает
// обратный переход мастера.
type ResetScope int

const (
	ResetNothing ResetScope = iota
	// ResetDecisions - сброс решений оператора (target-account флаги,
	// выбор компаний) при возврате confirm -> preview.
	ResetDecisions
	// ResetPreview - сброс превью и решений при возврате preview -> map.
	ResetPreview
	// ResetEverything - полный сброс при возврате map -> upload
	// (повторная загрузка обнуляет все).
	ResetEverything
)

var forwardEdges = map[string]string{
	StepUpload:  StepMap,
	StepMap:     StepPreview,
	StepPreview: StepConfirm,
	StepConfirm: StepExecuted,
}

var backwardEdges = map[string]struct {
	to    string
	reset ResetScope
}{
	StepMap:     {StepUpload, ResetEverything},
	StepPreview: {StepMap, ResetPreview},
	StepConfirm: {StepPreview, ResetDecisions},
}

// Advance переводит мастер на следующий шаг. Из терминального
// "executed" переходов вперед нет.
func Advance(current string) (string, error) {
	next, ok := forwardEdges[current]
	if !ok {
		return "", fmt.Errorf("недопустимый переход вперед из шага %q", current)
	}
	return next, nil
}

// Back возвращает мастер на предыдущий шаг и сообщает, какое
// состояние при этом сбрасывается. Из "upload" и "executed" назад
// вернуться нельзя.
func Back(current string) (string, ResetScope, error) {
	edge, ok := backwardEdges[current]
	if !ok {
		return "", ResetNothing, fmt.Errorf("недопустимый переход назад из шага %q", current)
	}
	return edge.to, edge.reset, nil
}

// CanExecute сообщает, допустим ли запуск импорта с текущего шага.
func CanExecute(current string) bool {
	return current == StepConfirm
}

// StartOver возвращает мастер в начальное состояние. Допустимо с
// любого шага, включая терминальный "executed".
func StartOver() (string, ResetScope) {
	return StepUpload, ResetEverything
}
