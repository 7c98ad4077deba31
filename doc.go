/*
Package homeview is the home screen of a learning app, rebuilt as a terminal and
HTTP application around two pieces of state.

# Concept

The screen owns two things. The first is a tiny shared store of UI flags (is the
slide-in menu open, what is the signed-in user called), changed only by
dispatching tagged messages through a pure reducer. The second is the
"continue learning" cards, fetched from a content service and shown as Loading,
Error or the list of cards while the request runs its course.

App wires both to a catalog of logos and popular courses, a profile lookup that
fills in the user's name, snapshot persistence so the flags survive restarts,
and the renderers that turn all of it into text.

# Usage

	app, err := homeview.New(ctx,
		homeview.WithExecutor(graphql.New(endpoint, graphql.WithToken(token))),
		homeview.WithProfileFetcher(profile.NewFetcher("")),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := app.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer app.Stop()

	app.Dispatch(domain.OpenMenu())
	fmt.Println(app.Home())

# Threading

Settlements of the cards query and the profile lookup are delivered through the
configured query.Scheduler. Interactive front ends pass a *loop.Loop so that every
state change and every render happens on one goroutine; servers keep the default
inline scheduler and rely on the store and binding being safe for concurrent use.
*/
package homeview
