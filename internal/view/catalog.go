package view

import "strings"

// Locale names a supported message language.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleRU Locale = "ru"
)

// Message keys.
const (
	MsgStudentTitle       = "student.title"
	MsgStudentHint        = "student.hint"
	MsgStudentEmpty       = "student.empty"
	MsgStudentEmptyHint   = "student.empty_hint"
	MsgStudentAssigned    = "student.assigned_notice"
	MsgClaimSuccess       = "student.claim_success"
	MsgTeacherTitle       = "teacher.title"
	MsgTeacherEmpty       = "teacher.empty"
	MsgAdminTitle         = "admin.title"
	MsgFormNoSubjects     = "form.no_subjects"
	MsgLoadFailed         = "error.load"
	MsgRequestFailed      = "error.request"
	MsgNetworkFailed      = "error.network"
	MsgSessionRequired    = "error.session"
	MsgInvalidCredentials = "error.credentials"
	MsgDuplicateEmail     = "error.duplicate_email"
	MsgTooManyAttempts    = "error.too_many_attempts"
	MsgLoading            = "state.loading"
	MsgActionClaim        = "action.claim"
	MsgActionClaiming     = "action.claiming"
	MsgActionUnavailable  = "action.unavailable"
	MsgActionEdit         = "action.edit"
	MsgActionDelete       = "action.delete"
	MsgActionEnable       = "action.enable"
	MsgActionDisable      = "action.disable"
	MsgActionDetails      = "action.details"
	MsgActionCreate       = "action.create"
	MsgActionRetry        = "action.retry"
	MsgActionSubjects     = "action.subjects"
	MsgBadgeSelected      = "badge.selected"
	MsgBadgeTaken         = "badge.taken"
	MsgDifficultyEasy     = "difficulty.easy"
	MsgDifficultyMedium   = "difficulty.medium"
	MsgDifficultyHard     = "difficulty.hard"
	MsgDifficultyUnknown  = "difficulty.unknown"
)

var catalogs = map[Locale]map[string]string{
	LocaleEN: {
		MsgStudentTitle:       "Available courseworks",
		MsgStudentHint:        "Choose one coursework to work on. Only one can be selected.",
		MsgStudentEmpty:       "no courseworks available",
		MsgStudentEmptyHint:   "Teachers have not published any courseworks yet. Check back later.",
		MsgStudentAssigned:    "You have already selected a coursework. Other courseworks cannot be selected.",
		MsgClaimSuccess:       "Coursework selected. You can start working on it now.",
		MsgTeacherTitle:       "My courseworks",
		MsgTeacherEmpty:       "no courseworks created yet",
		MsgAdminTitle:         "Administration",
		MsgFormNoSubjects:     "no assigned subjects",
		MsgLoadFailed:         "failed to load data",
		MsgRequestFailed:      "request failed",
		MsgNetworkFailed:      "backend is unreachable",
		MsgSessionRequired:    "sign in to continue",
		MsgInvalidCredentials: "invalid email or password",
		MsgDuplicateEmail:     "a user with this email already exists",
		MsgTooManyAttempts:    "too many attempts, try again later",
		MsgLoading:            "loading",
		MsgActionClaim:        "Select",
		MsgActionClaiming:     "Selecting...",
		MsgActionUnavailable:  "Unavailable",
		MsgActionEdit:         "Edit",
		MsgActionDelete:       "Delete",
		MsgActionEnable:       "Open for selection",
		MsgActionDisable:      "Close for selection",
		MsgActionDetails:      "Details",
		MsgActionCreate:       "Create coursework",
		MsgActionRetry:        "Retry",
		MsgActionSubjects:     "Subjects",
		MsgBadgeSelected:      "Selected by you",
		MsgBadgeTaken:         "Taken",
		MsgDifficultyEasy:     "Easy",
		MsgDifficultyMedium:   "Medium",
		MsgDifficultyHard:     "Hard",
		MsgDifficultyUnknown:  "Not specified",
	},
	LocaleRU: {
		MsgStudentTitle:       "Доступные курсовые работы",
		MsgStudentHint:        "Выберите курсовую работу для выполнения. Можно выбрать только одну.",
		MsgStudentEmpty:       "Нет доступных курсовых работ",
		MsgStudentEmptyHint:   "Преподаватели пока не опубликовали курсовые работы. Проверьте позже.",
		MsgStudentAssigned:    "Вы уже выбрали курсовую работу. Другие работы недоступны для выбора.",
		MsgClaimSuccess:       "Курсовая работа успешно выбрана! Теперь вы можете приступить к выполнению.",
		MsgTeacherTitle:       "Мои курсовые работы",
		MsgTeacherEmpty:       "Нет созданных курсовых работ",
		MsgAdminTitle:         "Администрирование",
		MsgFormNoSubjects:     "Нет назначенных дисциплин",
		MsgLoadFailed:         "Не удалось загрузить данные",
		MsgRequestFailed:      "Ошибка запроса",
		MsgNetworkFailed:      "Сервер недоступен",
		MsgSessionRequired:    "Войдите, чтобы продолжить",
		MsgInvalidCredentials: "Неверный email или пароль",
		MsgDuplicateEmail:     "Пользователь с таким email уже существует",
		MsgTooManyAttempts:    "Слишком много попыток, попробуйте позже",
		MsgLoading:            "Загрузка",
		MsgActionClaim:        "Выбрать",
		MsgActionClaiming:     "Выбираю...",
		MsgActionUnavailable:  "Недоступно",
		MsgActionEdit:         "Редактировать",
		MsgActionDelete:       "Удалить",
		MsgActionEnable:       "Открыть для выбора",
		MsgActionDisable:      "Закрыть для выбора",
		MsgActionDetails:      "Подробнее",
		MsgActionCreate:       "Создать курсовую",
		MsgActionRetry:        "Повторить",
		MsgActionSubjects:     "Дисциплины",
		MsgBadgeSelected:      "Выбрана вами",
		MsgBadgeTaken:         "Занята",
		MsgDifficultyEasy:     "Легкая",
		MsgDifficultyMedium:   "Средняя",
		MsgDifficultyHard:     "Сложная",
		MsgDifficultyUnknown:  "Не указана",
	},
}

// Catalog resolves message keys for one locale, falling back to English.
type Catalog struct {
	locale Locale
}

// NewCatalog returns the catalog for locale. Unknown locales use English.
func NewCatalog(locale string) Catalog {
	normalized := Locale(strings.ToLower(strings.TrimSpace(locale)))
	if _, ok := catalogs[normalized]; !ok {
		normalized = LocaleEN
	}
	return Catalog{locale: normalized}
}

// SupportedLocale reports whether locale has a catalog.
func SupportedLocale(locale string) bool {
	_, ok := catalogs[Locale(strings.ToLower(strings.TrimSpace(locale)))]
	return ok
}

func (c Catalog) Locale() Locale {
	if c.locale == "" {
		return LocaleEN
	}
	return c.locale
}

// Text returns the message for key, or the key itself when no translation exists.
func (c Catalog) Text(key string) string {
	if message, ok := catalogs[c.Locale()][key]; ok {
		return message
	}
	if message, ok := catalogs[LocaleEN][key]; ok {
		return message
	}
	return key
}
