// Package student содержит доменную модель ученика школы.
//
// Пакет определяет:
//
//   - Сущность Student (класс, параллель, номер в журнале, родитель)
//   - Value Objects: ClassName, Division
//   - Интерфейс репозитория: Repository
//
// # Архитектурные принципы
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Dependency Inversion - интерфейсы реализуются в infrastructure
//
// # Перевод в следующий класс
//
// Класс хранится строкой ("1".."12"). Следующий класс существует только
// для классов 1-11, класс 12 - выпускной:
//
//	next, ok := ClassName("5").Next() // "6", true
//	_, ok = ClassName("12").Next()    // "", false
//
// Уникальность ученика определяется тройкой (rollNo, класс, параллель).
// Поле LastPromotionYear отмечает год, за который ученик уже обработан
// автоматическим переводом; репозиторий обновляет его атомарно вместе
// с классом через PromoteIfPending.
package student
