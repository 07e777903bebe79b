package models

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// LifePhaseKind - вид текущего физиологического состояния
type LifePhaseKind string

const (
	LifePhaseNone          LifePhaseKind = "none"
	LifePhasePregnancy     LifePhaseKind = "pregnancy"
	LifePhaseBreastfeeding LifePhaseKind = "breastfeeding"
	LifePhaseFasting       LifePhaseKind = "fasting"
)

// BreastfeedingLevel - полное или частичное кормление
type BreastfeedingLevel string

const (
	BreastfeedingExclusive BreastfeedingLevel = "exclusive"
	BreastfeedingPartial   BreastfeedingLevel = "partial"
)

// FastingSchedule - режим поста пользователя
type FastingSchedule string

const (
	FastingRamadan         FastingSchedule = "ramadan"
	FastingIntermittent168 FastingSchedule = "intermittent_16_8"
	FastingSunMon          FastingSchedule = "sun_mon"
)

// ErrInvalidLifePhase - сохранённую фазу не удалось разобрать
var ErrInvalidLifePhase = errors.New("invalid life phase")

// LifePhase - закрытый набор вариантов: NoPhase, Pregnancy, Breastfeeding, Fasting.
// Каждый вариант несёт только допустимые для него поля.
type LifePhase interface {
	Kind() LifePhaseKind
	// Since возвращает начало фазы, нулевое время для NoPhase.
	Since() time.Time
	lifePhase()
}

// NoPhase - корректировки фазы не применяются
type NoPhase struct{}

// Pregnancy с триместром 1..3
type Pregnancy struct {
	Trimester int
	StartDate time.Time
}

// Breastfeeding с полным или частичным кормлением
type Breastfeeding struct {
	Level     BreastfeedingLevel
	StartDate time.Time
}

// Fasting меняет время приёмов пищи, а не калорийность
type Fasting struct {
	Schedule  FastingSchedule
	StartDate time.Time
}

func (NoPhase) Kind() LifePhaseKind       { return LifePhaseNone }
func (Pregnancy) Kind() LifePhaseKind     { return LifePhasePregnancy }
func (Breastfeeding) Kind() LifePhaseKind { return LifePhaseBreastfeeding }
func (Fasting) Kind() LifePhaseKind       { return LifePhaseFasting }

func (NoPhase) Since() time.Time         { return time.Time{} }
func (p Pregnancy) Since() time.Time     { return p.StartDate }
func (p Breastfeeding) Since() time.Time { return p.StartDate }
func (p Fasting) Since() time.Time       { return p.StartDate }

func (NoPhase) lifePhase()       {}
func (Pregnancy) lifePhase()     {}
func (Breastfeeding) lifePhase() {}
func (Fasting) lifePhase()       {}

// Validate проверяет подсостояние варианта
func (p Pregnancy) Validate() error {
	if p.Trimester < 1 || p.Trimester > 3 {
		return fmt.Errorf("%w: trimester %d", ErrInvalidLifePhase, p.Trimester)
	}
	return nil
}

// Validate проверяет подсостояние варианта
func (p Breastfeeding) Validate() error {
	switch p.Level {
	case BreastfeedingExclusive, BreastfeedingPartial:
		return nil
	}
	return fmt.Errorf("%w: breastfeeding level %q", ErrInvalidLifePhase, p.Level)
}

// Validate проверяет подсостояние варианта
func (p Fasting) Validate() error {
	switch p.Schedule {
	case FastingRamadan, FastingIntermittent168, FastingSunMon:
		return nil
	}
	return fmt.Errorf("%w: fasting schedule %q", ErrInvalidLifePhase, p.Schedule)
}

// NewLifePhase собирает вариант из сохранённого представления.
// sub - триместр ("1".."3"), вид кормления или режим поста.
// Неизвестный вид или подсостояние дают NoPhase вместе с ErrInvalidLifePhase.
func NewLifePhase(kind LifePhaseKind, sub string, start time.Time) (LifePhase, error) {
	switch kind {
	case LifePhaseNone, "":
		return NoPhase{}, nil
	case LifePhasePregnancy:
		trimester, err := strconv.Atoi(sub)
		if err != nil {
			return NoPhase{}, fmt.Errorf("%w: trimester %q", ErrInvalidLifePhase, sub)
		}
		p := Pregnancy{Trimester: trimester, StartDate: start}
		if err := p.Validate(); err != nil {
			return NoPhase{}, err
		}
		return p, nil
	case LifePhaseBreastfeeding:
		p := Breastfeeding{Level: BreastfeedingLevel(sub), StartDate: start}
		if err := p.Validate(); err != nil {
			return NoPhase{}, err
		}
		return p, nil
	case LifePhaseFasting:
		p := Fasting{Schedule: FastingSchedule(sub), StartDate: start}
		if err := p.Validate(); err != nil {
			return NoPhase{}, err
		}
		return p, nil
	default:
		return NoPhase{}, fmt.Errorf("%w: kind %q", ErrInvalidLifePhase, kind)
	}
}

// SubState возвращает подсостояние варианта для сохранения
func SubState(p LifePhase) string {
	switch v := p.(type) {
	case Pregnancy:
		return strconv.Itoa(v.Trimester)
	case Breastfeeding:
		return string(v.Level)
	case Fasting:
		return string(v.Schedule)
	default:
		return ""
	}
}
