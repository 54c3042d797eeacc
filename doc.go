/*
Package dsp compiles dsp templates into JavaScript rendering code.

A dsp template is ordinary output text with three kinds of embedded tags:
directives <% ... %> carrying template structure (layout, head, d, slot,
inc, attrs), expressions {% ... %} whose value is written into the output,
and variables [[ name ]] looked up in the render data.

Usage example

Typically a project keeps its views in one directory tree:

  app/views/
  app/views/admin/
  app/views/widgets/
  ...

This snippet compiles every .dsp file under app/views and writes the
generated .js files to a build directory.  (Error checking is skipped.)

  build, _ := dsp.NewBundle().
      WatchFiles(mode == "dev").   // recompile on changes (in dev)
      Namespace("views").          // root namespace of the generated code
      AddTemplateDir("app/views"). // load *.dsp in all sub-directories
      Compile()
  build.Write("public/js")

A page is rendered in JavaScript, after loading lib/dsp.js and the
generated files:

  var html = dsp.renderToString(views.admin.home, {user: user});

Advanced Usage

The dsp package is a friendly interface to its sub-packages.  Tools that
inspect or rewrite templates are better served by dsp/parse and dsp/ast
directly; dsp/dspjs generates code for a single parsed template.
*/
package dsp
