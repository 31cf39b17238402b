/*
Package overlord keeps a fixed list of shell commands running.

Each command is started through /bin/sh in its own process group, its standard
output is merged line by line into one combined stream, and it is restarted
whenever it exits. On SIGINT or SIGTERM every child is asked to terminate and
no further restarts happen; a second request, or SIGQUIT, kills them outright.
The program exits once every child is gone.

# Usage

	$ cat Procfile
	# one command per line, '#' lines and blank lines are skipped
	python -m http.server 8000
	tail -F /var/log/app.log

	$ overlord Procfile
	$ overlord < Procfile

The engine lives in package supervisor and can be embedded directly:

	specs, err := process.ParseCommands(os.Stdin)
	if err != nil {
		log.Fatal(err)
	}

	sup := supervisor.New(specs)
	if err := sup.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package overlord
