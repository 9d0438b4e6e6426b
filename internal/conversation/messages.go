package conversation

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/tengecash-bot/internal/models"
)

const helpText = `/info - инструкция по внесению трат
/start - начать работу с ботом
/login - регистрация в Tenge Cash
/logout - выход из бота

/catlist - список категорий
/catadd - добавить категорию
/catedit - переименовать категорию
/catdelete - удалить категорию

/list - список последних 10-ти расходов
/total - сумма расходов за текущий месяц

/site - перейти на веб-сайт Tenge Cash
/cancel - отменить текущее действие`

const (
	msgInfo             = "Вводи трату в формате \"Сумма Описание\", например \"1000 Кофе\" или \"1000,50 Кофе\". Описание можно не указывать."
	msgUnauthenticated  = "Упс... Ты не авторизован.\nПожалуйста, введи команду для привязки:\n/login\n\nили сразу: /login логин пароль"
	msgLoginRequired    = "Сначала привяжи аккаунт Tenge Cash: /login"
	msgAskUsername      = "Введи свой логин от Tenge Cash:"
	msgAskPassword      = "Теперь введи пароль. Сообщение с паролем будет удалено."
	msgEmptyUsername    = "Логин не может быть пустым. Введи логин:"
	msgLoginFailed      = "Ошибка: Пользователь с таким именем не найден в базе данных"
	msgAccountInactive  = "Ошибка: аккаунт отключён. Обратись к администратору Tenge Cash."
	msgLogoutDone       = "Выход выполнен успешно. Для повторного входа выполни команду /login"
	msgLogoutNotBound   = "Ты не был авторизован"
	msgUnknownCommand   = "Неизвестная команда. Список команд: /help"
	msgCancelled        = "Действие отменено."
	msgNothingToCancel  = "Нечего отменять."
	msgSiteMissing      = "Адрес веб-сайта Tenge Cash не настроен."
	msgNoCategories     = "У тебя пока нет категорий. Добавь первую: /catadd"
	msgAskCategoryName  = "Введи название новой категории:"
	msgPickToRename     = "Выбери категорию для переименования:"
	msgPickToDelete     = "Выбери категорию для удаления:"
	msgCategoryNotFound = "Категория не найдена."
	msgDeleteCancelled  = "Удаление отменено."
	msgInvalidAmount    = "Введи сумму (например, 1000) и описание через пробел: \"1000 Кофе\""
	msgPendingExpired   = "Трата устарела. Отправь сумму ещё раз."
	msgNoExpenses       = "Расходов пока нет."
	msgBadCallback      = "Неизвестное действие"
)

var monthNames = [...]string{
	"январь", "февраль", "март", "апрель", "май", "июнь",
	"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь",
}

func msgWelcomeBack(name string) string {
	return fmt.Sprintf("С возвращением, %s!", name)
}

func msgLoginSucceeded(username string) string {
	return fmt.Sprintf("Получилось! Ты вошел как пользователь %s!", username)
}

func msgStoreError(err error) string {
	return fmt.Sprintf("❌ Ошибка: %v\nПопробуй ещё раз.", err)
}

func msgSite(url string) string {
	return "Веб-сайт Tenge Cash: " + url
}

func msgCategoryList(categories []models.Category) string {
	var sb strings.Builder
	sb.WriteString("Твои категории:\n")
	for i, c := range categories {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c.Name)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func msgCategoryExists(name string) string {
	return fmt.Sprintf("Категория «%s» уже существует. Введи другое название:", name)
}

func msgCategoryCreated(name string) string {
	return fmt.Sprintf("✅ Категория «%s» добавлена.", name)
}

func msgAskNewName(name string) string {
	return fmt.Sprintf("Введи новое название для категории «%s»:", name)
}

func msgCategoryRenamed(oldName, newName string) string {
	return fmt.Sprintf("✅ Категория «%s» переименована в «%s».", oldName, newName)
}

func msgConfirmDelete(name string) string {
	return fmt.Sprintf("<b>Удалить категорию «%s»?</b>\nВсе расходы в этой категории тоже будут удалены.", html.EscapeString(name))
}

func msgCategoryDeleted(name string, removed int64) string {
	text := fmt.Sprintf("🗑 Категория «%s» удалена.", name)
	if removed > 0 {
		text += fmt.Sprintf("\nУдалено расходов: %d", removed)
	}
	return text
}

func msgDescriptionTooLong() string {
	return fmt.Sprintf("Описание слишком длинное (максимум %d символов). Отправь трату ещё раз покороче.", models.MaxDescriptionLength)
}

func msgPickCategory(amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("Сумма: %s. Выбери категорию:", formatMoney(amount, currency))
}

func msgExpenseSaved(amount decimal.Decimal, currency, category string) string {
	return fmt.Sprintf("✅ Записано: %s — %s", formatMoney(amount, currency), category)
}

func msgRecentExpenses(expenses []models.Expense, currency string) string {
	var sb strings.Builder
	sb.WriteString("Последние расходы:\n")
	for _, exp := range expenses {
		fmt.Fprintf(&sb, "%s — %s — %s", exp.Date.Format("02.01.2006"), formatMoney(exp.Amount, currency), exp.CategoryName)
		if exp.Description != "" && exp.Description != exp.CategoryName {
			fmt.Fprintf(&sb, " (%s)", exp.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func msgMonthTotal(month time.Time, total decimal.Decimal, currency string) string {
	return fmt.Sprintf("Расходы за %s %d: %s", monthNames[month.Month()-1], month.Year(), formatMoney(total, currency))
}

// formatMoney renders an amount with the currency symbol, dropping a zero fraction.
func formatMoney(amount decimal.Decimal, currency string) string {
	s := amount.StringFixed(2)
	s = strings.TrimSuffix(s, ".00")
	return s + " " + models.CurrencySymbol(currency)
}
