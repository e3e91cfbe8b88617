package entity

// ServiceState состояние жизненного цикла сервиса
type ServiceState string

const (
	StateStarting ServiceState = "starting" // Подключение к шине
	StateRunning  ServiceState = "running"  // Объект экспортирован, вызовы принимаются
	StateStopping ServiceState = "stopping" // Получен Terminate или потеряно имя
	StateStopped  ServiceState = "stopped"  // Цикл завершён
)

var transitions = map[ServiceState][]ServiceState{
	StateStarting: {StateRunning, StateStopping},
	StateRunning:  {StateStopping},
	StateStopping: {StateStopped},
}

// CanTransition проверяет, допустим ли переход из s в next
func (s ServiceState) CanTransition(next ServiceState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Accepting сообщает, обслуживает ли сервис вызовы методов
func (s ServiceState) Accepting() bool {
	return s == StateRunning
}
