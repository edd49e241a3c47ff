package apps

import "gophercore/user"

func init() {
	register("hello_yield", helloYield)
}

func helloYield(env *user.Env) int32 {
	for round := 0; round < 3; round++ {
		env.Log().Info("hello", "round", round)
		if !expect(env, env.Yield() == 0, "yield returns 0") {
			return 1
		}
	}
	return 0
}
