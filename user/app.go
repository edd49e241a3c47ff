package user

// App is a user program. Main returns the exit code of the task.
type App struct {
	Name string
	Main func(env *Env) int32
}

// Entry returns a task body that runs the app on env and exits with the
// value returned by Main.
func (a App) Entry(env *Env) func() {
	return func() {
		env.Exit(a.Main(env))
	}
}
