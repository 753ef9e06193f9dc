// Package common — errors.go определяет таксономию ошибок,
// которая используется во всех модулях сервиса.
// Каждая ошибка несёт вид (Kind) и сообщение для клиента;
// по виду HTTP-слой выбирает статус ответа.
package common

import (
	"context"
	"errors"
	"net/http"
)

// Kind — вид ошибки.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindInvalidArgument
	KindInsufficientFunds
	KindRequirementNotMet
	KindFailedPrecondition
	KindUnauthorized
	KindForbidden
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindRequirementNotMet:
		return "requirement_not_met"
	case KindFailedPrecondition:
		return "failed_precondition"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error — ошибка с видом и сообщением для клиента.
// Err (если есть) — исходная причина, в ответ клиенту она не попадает.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Конструкторы по видам.
func NotFound(msg string) *Error           { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error           { return &Error{Kind: KindConflict, Message: msg} }
func InvalidArgument(msg string) *Error    { return &Error{Kind: KindInvalidArgument, Message: msg} }
func InsufficientFunds(msg string) *Error  { return &Error{Kind: KindInsufficientFunds, Message: msg} }
func RequirementNotMet(msg string) *Error  { return &Error{Kind: KindRequirementNotMet, Message: msg} }
func FailedPrecondition(msg string) *Error { return &Error{Kind: KindFailedPrecondition, Message: msg} }
func Unauthorized(msg string) *Error       { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) *Error          { return &Error{Kind: KindForbidden, Message: msg} }

// Wrap оборачивает причину err в ошибку заданного вида.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf определяет вид ошибки.
// Истёкший дедлайн контекста считается недоступностью хранилища.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}
	return KindInternal
}

// Is сообщает, относится ли err к виду kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus возвращает HTTP-статус для ошибки.
// Ошибки оплаты и предусловий отдаются как 400.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalidArgument, KindInsufficientFunds, KindRequirementNotMet, KindFailedPrecondition:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage возвращает текст ошибки, который можно показать клиенту.
// Внутренние детали (SQL, драйвер) наружу не уходят.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	switch KindOf(err) {
	case KindUnavailable:
		return MsgUnavailable
	default:
		return MsgInternal
	}
}

const (
	MsgInternal    = "伺服器內部錯誤"
	MsgUnavailable = "服務暫時無法使用，請稍後再試"
)

// Ошибки пользователей и авторизации
var (
	// ErrUserNotFound — пользователь не найден
	ErrUserNotFound = NotFound("使用者不存在")
	// ErrUsernameTaken — имя пользователя уже занято
	ErrUsernameTaken = Conflict("使用者名稱已存在")
	// ErrEmailTaken — email уже занят
	ErrEmailTaken = Conflict("電子郵件已被註冊")
	// ErrUnauthorized — нет или неверный токен
	ErrUnauthorized = Unauthorized("未授權的請求")
	// ErrForbidden — нет прав администратора
	ErrForbidden = Forbidden("權限不足")
	// ErrAlreadyCheckedIn — повторный чек-ин в тот же день
	ErrAlreadyCheckedIn = Conflict("今日已簽到")
)

// Ошибки кошелька
var (
	// ErrInvalidAmount — сумма ноль или отрицательная
	ErrInvalidAmount = InvalidArgument("金額必須為正整數")
	// ErrInsufficientBalance — недостаточно средств
	ErrInsufficientBalance = InsufficientFunds("餘額不足")
)

// Ошибки каталога
var (
	ErrProductNotFound = NotFound("商品不存在")
	ErrThemeNotFound   = NotFound("主題不存在")
	ErrChapterNotFound = NotFound("章節不存在")
	ErrLevelNotFound   = NotFound("關卡不存在")
)

// Ошибки покупок
var (
	// ErrUnknownPaymentMethod — неизвестный способ оплаты
	ErrUnknownPaymentMethod = InvalidArgument("無效的付款方式")
	// ErrRecycleRequirementMissing — у товара нет требований по переработке
	ErrRecycleRequirementMissing = FailedPrecondition("商品回收需求資訊不存在")
	// ErrVoucherTypeNotFound — нет такого вида ваучера
	ErrVoucherTypeNotFound = NotFound("票券不存在")
	// ErrVoucherTypeExists — имя вида ваучера занято
	ErrVoucherTypeExists = Conflict("票券名稱已存在")
	// ErrVoucherOutOfStock — остаток меньше запрошенного
	ErrVoucherOutOfStock = FailedPrecondition("票券剩餘數量不足")
	// ErrInvalidVoucherCount — количество к обмену вне допустимого диапазона
	ErrInvalidVoucherCount = InvalidArgument("兌換數量必須介於 1 與 100 之間")
)

// Ошибки прогресса
var (
	ErrChapterAlreadyUnlocked  = Conflict("該章節已解鎖")
	ErrChapterAlreadyCompleted = Conflict("該章節已設置完成")
	ErrChapterNotUnlocked      = FailedPrecondition("該章節尚未解鎖")
	ErrChapterNotCompletable   = FailedPrecondition("該章節尚未達成完成條件")
	ErrChapterNotCompleted     = FailedPrecondition("該章節尚未完成")
	ErrReplayBudgetExhausted   = FailedPrecondition("已無剩餘遊玩次數")
	ErrLevelRecordNotFound     = NotFound("沒有找到該關卡的紀錄")
)

// Ошибки переработки
var (
	// ErrUnknownMaterial — материал не из закрытого списка
	ErrUnknownMaterial = InvalidArgument("無效的回收類別")
	// ErrInvalidCount — количество должно быть положительным
	ErrInvalidCount = InvalidArgument("回收數量必須為正整數")
)
